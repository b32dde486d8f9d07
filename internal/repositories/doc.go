// Package repositories implements SQLite persistence for the retrieval journal.
//
// [RetrievalRepository] implements models.Repository[*models.Retrieval] with atomic sequence generation and
// soft deletes via deleted_at timestamps; deleted rows are excluded from queries.
// [JournalAdapter] exposes the repository as the pipeline's journal.
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
