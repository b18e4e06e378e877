// Package prompt asks the user for a date range and a subject on the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jonathan/exampapers/internal/observability"
	"github.com/jonathan/exampapers/internal/parsing"
	"github.com/jonathan/exampapers/internal/types"
)

var (
	// ErrNoInput is returned when input ends before a valid answer is read.
	ErrNoInput = errors.New("no input")
	// ErrNoSubjects is returned when there is nothing to choose from.
	ErrNoSubjects = errors.New("no subjects available")
)

// Prompter reads answers line by line, re-asking until each is valid.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// New creates a Prompter reading from in and writing questions to out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

//nolint:errcheck // writing to the terminal; errors are not recoverable
func (p *Prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *Prompter) readLine(question string) (string, error) {
	p.printf("%s", question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", ErrNoInput
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// DateRange asks for start and end until both parse and start is not after
// end. It returns the range along with the text as typed.
func (p *Prompter) DateRange() (r types.DateRange, startText, endText string, err error) {
	p.printf("\nDATE RANGE SELECTION\n")
	p.printf("Please enter the date range (format: MMM YYYY)\n")
	p.printf("Examples: 'Jun 2005', 'Sep 2018', 'May 2025'\n")

	for {
		startText, err = p.readLine("\nEnter START date (e.g., 'Jun 2005'): ")
		if err != nil {
			return types.DateRange{}, "", "", err
		}
		endText, err = p.readLine("Enter END date (e.g., 'Sep 2018'): ")
		if err != nil {
			return types.DateRange{}, "", "", err
		}

		r, err = parsing.ParseDateRange(startText, endText)
		if err == nil {
			return r, startText, endText, nil
		}

		var formatErr *parsing.DateFormatError
		switch {
		case errors.As(err, &formatErr):
			p.printf("Invalid date format. Please use format like 'Jun 2005' or 'Sep 2018'\n")
		case errors.Is(err, types.ErrInvalidRange):
			p.printf("Start date should be earlier than end date\n")
		default:
			p.printf("Error parsing dates: %v\n", err)
		}
	}
}

// Subject shows subjects grouped by category and asks for a number until
// one in range is given.
func (p *Prompter) Subject(subjects []types.FilterOption) (types.FilterOption, error) {
	if len(subjects) == 0 {
		return types.FilterOption{}, ErrNoSubjects
	}

	categories := types.GroupSubjects(subjects)
	numbered := types.NumberSubjects(categories)

	p.printf("\nSUBJECT SELECTION\n")
	observability.NewPrinter(p.out).PrintSubjects(categories)

	for {
		answer, err := p.readLine(fmt.Sprintf("\nSelect subject (1-%d): ", len(numbered)))
		if err != nil {
			return types.FilterOption{}, err
		}

		choice, err := strconv.Atoi(answer)
		if err != nil {
			p.printf("Please enter a valid number\n")
			continue
		}
		if choice < 1 || choice > len(numbered) {
			p.printf("Please enter a number between 1 and %d\n", len(numbered))
			continue
		}
		return numbered[choice-1], nil
	}
}
