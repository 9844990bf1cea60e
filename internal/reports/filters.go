package reports

import (
	"encoding/hex"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/cases"
)

const (
	dateLayout      = "2006-01-02"
	maxSearchLength = 120
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// GroupBy selects the sales report bucket size.
type GroupBy string

const (
	GroupByDay   GroupBy = "day"
	GroupByWeek  GroupBy = "week"
	GroupByMonth GroupBy = "month"
)

// Direction selects the display order of the payments ledger.
type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// DuesFilter narrows the dues report.
type DuesFilter struct {
	CustomerID      pgtype.Int8
	MinBalanceCents pgtype.Int8
	Search          string
}

// SalesFilter narrows and buckets the sales report. From and To are inclusive
// calendar days in UTC.
type SalesFilter struct {
	From    pgtype.Date
	To      pgtype.Date
	GroupBy GroupBy
}

// LedgerFilter narrows the payments ledger. From and To are inclusive calendar
// days in UTC.
type LedgerFilter struct {
	CustomerID pgtype.Int8
	InvoiceID  pgtype.Int8
	From       pgtype.Date
	To         pgtype.Date
	Direction  Direction
}

// ParseDuesQuery reads customerId, minBalanceCents and search.
func ParseDuesQuery(q url.Values) (DuesFilter, error) {
	customerID, err := parseID(q, "customerId")
	if err != nil {
		return DuesFilter{}, err
	}
	minBalance, err := parseInt(q, "minBalanceCents")
	if err != nil {
		return DuesFilter{}, err
	}
	filter := DuesFilter{
		CustomerID:      customerID,
		MinBalanceCents: minBalance,
		Search:          strings.TrimSpace(q.Get("search")),
	}
	return filter, filter.Validate()
}

// ParseSalesQuery reads from, to and groupBy.
func ParseSalesQuery(q url.Values) (SalesFilter, error) {
	from, err := parseDate(q, "from")
	if err != nil {
		return SalesFilter{}, err
	}
	to, err := parseDate(q, "to")
	if err != nil {
		return SalesFilter{}, err
	}
	filter := SalesFilter{
		From:    from,
		To:      to,
		GroupBy: GroupBy(strings.ToLower(strings.TrimSpace(q.Get("groupBy")))),
	}
	return filter, filter.Validate()
}

// ParseLedgerQuery reads customerId, invoiceId, from, to and direction.
func ParseLedgerQuery(q url.Values) (LedgerFilter, error) {
	customerID, err := parseID(q, "customerId")
	if err != nil {
		return LedgerFilter{}, err
	}
	invoiceID, err := parseID(q, "invoiceId")
	if err != nil {
		return LedgerFilter{}, err
	}
	from, err := parseDate(q, "from")
	if err != nil {
		return LedgerFilter{}, err
	}
	to, err := parseDate(q, "to")
	if err != nil {
		return LedgerFilter{}, err
	}
	filter := LedgerFilter{
		CustomerID: customerID,
		InvoiceID:  invoiceID,
		From:       from,
		To:         to,
		Direction:  Direction(strings.ToLower(strings.TrimSpace(q.Get("direction")))),
	}
	return filter, filter.Validate()
}

// Validate rejects non-positive ids and over-long searches.
func (f DuesFilter) Validate() error {
	if err := validateID("customerId", f.CustomerID); err != nil {
		return err
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(f.Search)); n > maxSearchLength {
		return invalidFilter("search", "exceeds %d characters", maxSearchLength)
	}
	return nil
}

// Validate rejects inverted ranges and unknown groupings.
func (f SalesFilter) Validate() error {
	if err := validateRange(f.From, f.To); err != nil {
		return err
	}
	switch f.GroupBy {
	case "", GroupByDay, GroupByWeek, GroupByMonth:
		return nil
	}
	return invalidFilter("groupBy", "must be day, week or month, got %q", f.GroupBy)
}

// Validate rejects non-positive ids, inverted ranges and unknown directions.
func (f LedgerFilter) Validate() error {
	if err := validateID("customerId", f.CustomerID); err != nil {
		return err
	}
	if err := validateID("invoiceId", f.InvoiceID); err != nil {
		return err
	}
	if err := validateRange(f.From, f.To); err != nil {
		return err
	}
	switch f.Direction {
	case "", DirectionAsc, DirectionDesc:
		return nil
	}
	return invalidFilter("direction", "must be asc or desc, got %q", f.Direction)
}

func (f SalesFilter) groupBy() GroupBy {
	if f.GroupBy == "" {
		return GroupByMonth
	}
	return f.GroupBy
}

func (f LedgerFilter) direction() Direction {
	if f.Direction == "" {
		return DirectionDesc
	}
	return f.Direction
}

func (f DuesFilter) cacheKey() []string {
	return []string{int8Token(f.CustomerID), int8Token(f.MinBalanceCents), searchToken(f.Search)}
}

func (f SalesFilter) cacheKey() []string {
	return []string{dateToken(f.From), dateToken(f.To), string(f.groupBy())}
}

func (f LedgerFilter) cacheKey() []string {
	return []string{
		int8Token(f.CustomerID),
		int8Token(f.InvoiceID),
		dateToken(f.From),
		dateToken(f.To),
		string(f.direction()),
	}
}

// rangeBounds turns an inclusive day range into a half-open instant range
// [from 00:00 UTC, day after to 00:00 UTC).
func rangeBounds(from, to pgtype.Date) (pgtype.Timestamptz, pgtype.Timestamptz) {
	var lo, hi pgtype.Timestamptz
	if from.Valid {
		lo = pgtype.Timestamptz{Time: startOfDay(from.Time), Valid: true}
	}
	if to.Valid {
		hi = pgtype.Timestamptz{Time: startOfDay(to.Time).AddDate(0, 0, 1), Valid: true}
	}
	return lo, hi
}

func withinRange(t time.Time, lo, hi pgtype.Timestamptz) bool {
	if lo.Valid && t.Before(lo.Time) {
		return false
	}
	if hi.Valid && !t.Before(hi.Time) {
		return false
	}
	return true
}

func dateOf(t time.Time) pgtype.Date {
	return pgtype.Date{Time: startOfDay(t), Valid: true}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func foldName(s string) string {
	return cases.Fold().String(s)
}

func parseID(q url.Values, field string) (pgtype.Int8, error) {
	v, err := parseInt(q, field)
	if err != nil {
		return pgtype.Int8{}, err
	}
	return v, validateID(field, v)
}

func parseInt(q url.Values, field string) (pgtype.Int8, error) {
	raw := strings.TrimSpace(q.Get(field))
	if raw == "" {
		return pgtype.Int8{}, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return pgtype.Int8{}, invalidFilter(field, "must be an integer, got %q", raw)
	}
	return pgtype.Int8{Int64: v, Valid: true}, nil
}

func parseDate(q url.Values, field string) (pgtype.Date, error) {
	raw := strings.TrimSpace(q.Get(field))
	if raw == "" {
		return pgtype.Date{}, nil
	}
	if !datePattern.MatchString(raw) {
		return pgtype.Date{}, invalidFilter(field, "must be in YYYY-MM-DD format, got %q", raw)
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return pgtype.Date{}, invalidFilter(field, "is not a calendar date: %q", raw)
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

func validateID(field string, v pgtype.Int8) error {
	if v.Valid && v.Int64 <= 0 {
		return invalidFilter(field, "must be positive, got %d", v.Int64)
	}
	return nil
}

func validateRange(from, to pgtype.Date) error {
	for _, d := range []pgtype.Date{from, to} {
		if d.Valid && d.InfinityModifier != pgtype.Finite {
			return invalidFilter("date", "must be finite")
		}
	}
	if from.Valid && to.Valid && startOfDay(from.Time).After(startOfDay(to.Time)) {
		return invalidFilter("from", "%s is after to %s", from.Time.Format(dateLayout), to.Time.Format(dateLayout))
	}
	return nil
}

func int8Token(v pgtype.Int8) string {
	if !v.Valid {
		return "-"
	}
	return strconv.FormatInt(v.Int64, 10)
}

func dateToken(d pgtype.Date) string {
	if !d.Valid {
		return "-"
	}
	return d.Time.Format(dateLayout)
}

// searchToken keeps free text out of Redis keys.
func searchToken(search string) string {
	folded := foldName(strings.TrimSpace(search))
	if folded == "" {
		return "-"
	}
	sum := blake2b.Sum256([]byte(folded))
	return hex.EncodeToString(sum[:8])
}
