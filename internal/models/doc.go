// Package models defines persistent entities for the download history archive.
//
// [DownloadRecord] captures one completed download: the track, where the file
// landed, and whether the tool fetched it or found it already on disk. Records
// implement the [Model] interface (key derivation and validation); the generic
// [Repository] interface defines the CRUD surface the repositories package
// implements over SQLite.
package models
