package idgen

import (
	"io"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	loanPrefix    = "LOAN"
	receiptPrefix = "RCPT"
	dateLayout    = "20060102"
)

// Generator builds loan and receipt numbers from the issue date and a
// monotonic ULID, so numbers issued within one process sort by issue order.
type Generator struct {
	entropy io.Reader
}

func NewGenerator() *Generator {
	return &Generator{entropy: ulid.DefaultEntropy()}
}

func (g *Generator) LoanNumber(at time.Time) string {
	return g.next(loanPrefix, at)
}

func (g *Generator) ReceiptNumber(at time.Time) string {
	return g.next(receiptPrefix, at)
}

func (g *Generator) next(prefix string, at time.Time) string {
	at = at.UTC()
	id := ulid.MustNew(ulid.Timestamp(at), g.entropy)
	return prefix + at.Format(dateLayout) + id.String()
}
