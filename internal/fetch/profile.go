package fetch

// Profile is a request fingerprint: a User-Agent plus extra headers. Some
// document hosts serve different markup depending on the client, so the
// aggressive extraction policy retries with several profiles.
type Profile struct {
	Name      string
	UserAgent string
	Headers   map[string]string
	// NoStore keeps the response out of the cache, both for revalidation
	// and for writes.
	NoStore bool
}

const htmlAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// Profiles lists the built-in fingerprints in the order they are tried.
var Profiles = []Profile{
	{
		Name:      "chrome-desktop",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		Headers:   map[string]string{"Accept": htmlAccept, "Accept-Language": "en-US,en;q=0.9"},
	},
	{
		Name:      "firefox-desktop",
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
		Headers:   map[string]string{"Accept": htmlAccept, "Accept-Language": "en-US,en;q=0.5"},
	},
	{
		Name:      "safari-mobile",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
		Headers:   map[string]string{"Accept": htmlAccept},
	},
	{
		Name:      "curl",
		UserAgent: "curl/8.5.0",
		Headers:   map[string]string{"Accept": "*/*"},
	},
	{
		Name:      "bot",
		UserAgent: "wordtrack/1.0 (+https://github.com/alphax/wordtrack)",
		Headers:   map[string]string{"Accept": "text/html,text/plain,application/json"},
	},
}
