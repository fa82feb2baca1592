// Package cloudflare is a thin binding to the Cloudflare v4 zone and DNS
// record API, scoped to what DNS-01 challenge provisioning needs: resolve a
// domain to its zone, create a TXT record, delete a record.
//
// Authentication uses the legacy email + global API key header pair
// (X-Auth-Email / X-Auth-Key), matching the credentials collected from users
// at issuance time. Every call carries a bounded timeout and surfaces the
// provider-reported error payload verbatim in the error detail.
//
// Zone resolution derives the registrable root from the last two domain
// labels, which is correct for common TLDs. Domains under multi-label public
// suffixes (for example .co.uk) need an explicit entry in
// Config.RootOverrides.
package cloudflare
