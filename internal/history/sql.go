package history

const createLookupTable = `
CREATE TABLE IF NOT EXISTS lookups (
  id integer primary key autoincrement,
  time datetime not null,
  fen varchar not null,
  poly_key varchar not null,
  status varchar not null,
  best_move varchar,
  opening_id varchar,
  matched_books int
)`

const insertLookup = `
INSERT INTO lookups (time, fen, poly_key, status, best_move, opening_id, matched_books)
VALUES (:time, :fen, :poly_key, :status, :best_move, :opening_id, :matched_books)
`

const selectRecent = `
SELECT id, time, fen, poly_key, status, best_move, opening_id, matched_books
FROM lookups
ORDER BY id DESC
LIMIT ?
`

const selectByKey = `
SELECT id, time, fen, poly_key, status, best_move, opening_id, matched_books
FROM lookups
WHERE poly_key = ?
ORDER BY id DESC
`
