package models

// OrderSequence is the transactional per-day counter behind order numbers.
// Incrementing the row inside the creating transaction makes the sequence
// unique and monotonic under concurrent order creation.
type OrderSequence struct {
	Day     string `gorm:"column:day;primaryKey"`
	LastSeq int64  `gorm:"column:last_seq;not null"`
}
