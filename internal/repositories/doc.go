// Package repositories implements SQLite persistence for the download archive.
//
// The backlog itself lives in a JSON document (see the backlog package); the
// database only keeps completed downloads for reporting. History rows are
// append-mostly: one per finished backlog item, so a track downloaded twice
// has two rows.
//
// [HistoryRepository] implements models.Repository[*models.DownloadRecord]
// with newest-first listing and per-track counts for the history command.
package repositories
