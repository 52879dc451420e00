package app

import (
	"fmt"
	"time"
)

// ReservationCode derives the human-readable booking code from the date and
// the storage-assigned reservation id. It can only be computed after the
// insert because it embeds the id.
func ReservationCode(date time.Time, id int64) string {
	return fmt.Sprintf("R%s-%06d", date.Format("20060102"), id)
}
