package bucket

import (
	"fmt"
	"path/filepath"
	"time"
)

// IDLength is the number of digits in an hour-bucket id (YYYYMMDDHH).
const IDLength = 10

// ID identifies one hour's worth of log files. It is the raw directory
// name: ten ASCII digits encoding year(4), month(2), day(2), hour(2).
type ID string

// Parse validates name as a bucket id. Directory names that are not
// exactly ten digits are not an error, they are simply not buckets.
func Parse(name string) (ID, bool) {
	if len(name) != IDLength {
		return "", false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return "", false
		}
	}
	return ID(name), true
}

// DatePrefix returns the human-readable form used in output lines,
// e.g. "2024112314" -> "2024/11/23 14".
func (id ID) DatePrefix() string {
	s := string(id)
	return fmt.Sprintf("%s/%s/%s %s", s[:4], s[4:6], s[6:8], s[8:10])
}

// Day returns the leading YYYYMMDD portion. The read contract filters
// output files by this prefix of the filename.
func (id ID) Day() string {
	return string(id)[:8]
}

// Hour returns the bucket's hour of day (0-23). The id is assumed
// valid; Parse is the only constructor.
func (id ID) Hour() int {
	s := string(id)
	return int(s[8]-'0')*10 + int(s[9]-'0')
}

// Time interprets the id as a wall-clock hour in UTC. Returns an error
// for ids like "0000009999" that are ten digits but not a real date.
func (id ID) Time() (time.Time, error) {
	return time.Parse("2006010215", string(id))
}

// OutputFile returns the summary file path for this bucket under outRoot.
func (id ID) OutputFile(outRoot string) string {
	return filepath.Join(outRoot, string(id)+".txt")
}
