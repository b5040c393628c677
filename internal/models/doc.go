// Package models defines the records and query types shared by the console's sync layer.
//
// The package contains two categories of types:
//
// 1. Records: the rows served by the remote record-store
//   - [Client] : a guest with name parts, passport and contact details
//   - [Room] : a reservable unit with category, capacity and nightly price
//   - [Booking] : a reservation linking a client to a room for a date range
//
// 2. Query state: what a list view asks for and what it gets back
//   - [Entity] : descriptor for one record type (endpoint, storage keys, catalogs)
//   - [QuerySpec] : page, filters and sort of the next list request
//   - [FilterState] : the persisted filter/sort portion of a QuerySpec
//   - [ListResult] : one page of records plus paging metadata
//
// All records implement [Record]; the sync layer only ever reads the id.
package models
