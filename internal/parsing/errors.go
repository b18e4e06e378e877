package parsing

import "fmt"

// DateFormatError represents user input that does not look like "MMM YYYY"
type DateFormatError struct {
	Input string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("invalid date format %q: use a format like 'Jun 2005' or 'Sep 2018'", e.Input)
}
