// Package harvest turns a text query into a directory of downloaded images.
//
// Paginator walks the search API's offset cursor until the server returns
// less than a full page or the cursor passes the configured maximum. A
// hard page cap guards against a server whose cursor never settles. URLs
// are returned in discovery order and are never deduplicated: a URL seen
// twice is downloaded twice, and the second write replaces the first.
//
// Harvester pairs a Paginator with a Saver (normally the downloader) and
// reports discovery and download counts for the run.
package harvest
