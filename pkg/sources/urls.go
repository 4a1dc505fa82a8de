package sources

const (
	// SDEURL is the community SQLite conversion of the static data export.
	SDEURL = "https://www.fuzzwork.co.uk/dump/sqlite-latest.sqlite.bz2"
	// SDEChecksumURL publishes the md5 of the file behind SDEURL.
	SDEChecksumURL = SDEURL + ".md5"
)
