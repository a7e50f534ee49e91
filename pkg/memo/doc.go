// Package memo reads and writes memos, their titles and their groups.
//
// A memo's title is its first line: on write the text is split at the first
// newline or carriage return, the head becomes the stored title and the
// remainder (including the line break) becomes the body. Reads and writes
// go through the memo_read and memo_write database functions, which enforce
// access control server-side and signal violations through SQLSTATE codes.
package memo
