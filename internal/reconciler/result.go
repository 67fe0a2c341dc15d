package reconciler

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/backgitup/backgitup/internal/mirrors"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Failure is a descriptor that ended a pass in OutcomeFailed.
type Failure struct {
	Descriptor mirrors.Descriptor
	Reason     string
}

// PassResult aggregates the outcomes of one pass.
// Total always equals Succeeded + Failed.
type PassResult struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time

	Total     int
	Succeeded int
	Failed    int

	Cloned   int
	Updated  int
	Recloned int

	Failures []Failure

	// ListingErr is set when enumeration ended early.
	ListingErr error
}

func NewPassResult() *PassResult {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	return &PassResult{
		ID:        id,
		StartedAt: time.Now(),
	}
}

// Record accounts for one descriptor outcome.
func (p *PassResult) Record(result mirrors.Result) {
	p.Total++

	switch result.Outcome {
	case mirrors.OutcomeCloned:
		p.Cloned++
	case mirrors.OutcomeUpdated:
		p.Updated++
	case mirrors.OutcomeRecloned:
		p.Recloned++
	case mirrors.OutcomeFailed:
	}

	if result.Succeeded() {
		p.Succeeded++
		return
	}

	p.Failed++
	p.Failures = append(p.Failures, Failure{
		Descriptor: result.Descriptor,
		Reason:     result.Reason(),
	})
}

func (p *PassResult) Finish() {
	p.FinishedAt = time.Now()
}

func (p *PassResult) Duration() time.Duration {
	if p.FinishedAt.IsZero() {
		return time.Since(p.StartedAt)
	}

	return p.FinishedAt.Sub(p.StartedAt)
}

// Clean reports whether every descriptor succeeded and the listing completed.
func (p *PassResult) Clean() bool {
	return p.Failed == 0 && p.ListingErr == nil
}

// Report renders a human readable summary.
func (p *PassResult) Report(w io.Writer) {
	fmt.Fprintf(w, "Pass %s finished in %s\n", p.ID, p.Duration().Round(time.Millisecond))

	counts := tablewriter.NewWriter(w)
	counts.SetHeader([]string{"Outcome", "Repositories"})
	counts.Append([]string{"Cloned", strconv.Itoa(p.Cloned)})
	counts.Append([]string{"Updated", strconv.Itoa(p.Updated)})
	counts.Append([]string{"Recloned", strconv.Itoa(p.Recloned)})
	counts.Append([]string{"Failed", strconv.Itoa(p.Failed)})
	counts.SetFooter([]string{"Total", strconv.Itoa(p.Total)})
	counts.Render()

	if len(p.Failures) > 0 {
		failures := tablewriter.NewWriter(w)
		failures.SetHeader([]string{"Repository", "Reason"})
		failures.SetAutoWrapText(false)
		failures.AppendBulk(lo.Map(p.Failures, func(f Failure, _ int) []string {
			return []string{f.Descriptor.FullName(), f.Reason}
		}))
		failures.Render()
	}

	if p.ListingErr != nil {
		fmt.Fprintf(w, "Listing incomplete: %v\n", p.ListingErr)
	}
}

// Fields returns the summary as structured log fields.
func (p *PassResult) Fields() []zap.Field {
	return []zap.Field{
		zap.Stringer("pass_id", p.ID),
		zap.Int("total", p.Total),
		zap.Int("succeeded", p.Succeeded),
		zap.Int("failed", p.Failed),
		zap.Int("cloned", p.Cloned),
		zap.Int("updated", p.Updated),
		zap.Int("recloned", p.Recloned),
		zap.Duration("duration", p.Duration()),
		zap.NamedError("listing_error", p.ListingErr),
	}
}
