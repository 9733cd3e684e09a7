// Package enrich implements the enrichment step of the import pipeline:
// for each imported tab it extracts the page content, summarizes it, and
// computes a passage embedding, then persists the updated record and
// refreshes the lexical index.
//
// Extraction and summarization go through the rate-limit gateway at low
// priority so interactive queries are never starved. Failures degrade per
// record: a tab whose page cannot be fetched still gets an embedding
// derived from its title and URL, and the failure is counted rather than
// aborting the batch.
package enrich
