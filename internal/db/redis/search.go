package redis

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/scifinder/internal/db"
	"github.com/kailas-cloud/scifinder/internal/domain/search/filter"
)

const dateLayout = "2006-01-02"

// SearchKNN runs a KNN vector similarity search with an optional pre-filter via FT.SEARCH.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}
	if efRuntime(q) > 0 && q.K > q.EFRuntime {
		return nil, fmt.Errorf("k (%d) must not exceed ef_runtime (%d)", q.K, q.EFRuntime)
	}

	filterStr, err := buildFilter(q.Filters)
	if err != nil {
		return nil, err
	}

	args := []string{q.IndexName, buildKNNQuery(q, filterStr)}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	args = append(args,
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", vectorToBytes(q.Vector),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, opError(db.OpSearch, q.IndexName, err)
	}

	return parseKNNResult(raw, scoreField(q))
}

func buildKNNQuery(q *db.KNNQuery, filterStr string) string {
	knn := fmt.Sprintf("[KNN %d @%s $BLOB", q.K, vectorField(q))
	if ef := efRuntime(q); ef > 0 {
		knn += fmt.Sprintf(" EF_RUNTIME %d", ef)
	}
	knn += "]"

	if filterStr == "" {
		return "*=>" + knn
	}
	return fmt.Sprintf("(%s)=>%s", filterStr, knn)
}

// efRuntime is zero for FLAT fields: the server rejects EF_RUNTIME there.
func efRuntime(q *db.KNNQuery) int {
	if q.VectorAlgo == db.VectorFlat {
		return 0
	}
	return q.EFRuntime
}

func vectorField(q *db.KNNQuery) string {
	if q.VectorField == "" {
		return db.DefaultVectorField
	}
	return q.VectorField
}

func scoreField(q *db.KNNQuery) string {
	return "__" + vectorField(q) + "_score"
}

func parseKNNResult(raw []rueidis.RedisMessage, scoreKey string) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{Key: key, Fields: parseFieldPairs(fields)}
		if scoreStr, ok := entry.Fields[scoreKey]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				entry.Score = similarity(d)
			}
			delete(entry.Fields, scoreKey)
		}
		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// similarity turns a cosine distance into a score clamped at 0. A zero query
// vector yields a NaN distance, which scores 0 so the response stays encodable.
func similarity(distance float64) float64 {
	if math.IsNaN(distance) {
		return 0
	}
	return max(0, 1.0-distance)
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// buildFilter translates an AND-only filter.Expression into a pre-filter query string.
// Clauses are space-separated, which is intersection in the query dialect.
func buildFilter(expr filter.Expression) (string, error) {
	if expr.IsEmpty() {
		return "", nil
	}

	parts := make([]string, 0, len(expr.All()))
	for _, cond := range expr.All() {
		part, err := buildCondition(cond)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " "), nil
}

func buildCondition(cond filter.Condition) (string, error) {
	switch cond.Kind() {
	case filter.KindWildcard:
		return fmt.Sprintf("@%s:{w'%s'}", cond.Field(), wildcardEscaper.Replace(cond.Value())), nil
	case filter.KindTerm:
		return fmt.Sprintf("@%s:{%s}", cond.Field(), tagEscaper.Replace(cond.Value())), nil
	case filter.KindRange:
		return buildDateRange(cond.Field(), cond.Range())
	default:
		return "", fmt.Errorf("unsupported filter kind %s", cond.Kind())
	}
}

// buildDateRange maps inclusive ISO date bounds onto a NUMERIC field of Unix seconds.
func buildDateRange(field string, r *filter.Range) (string, error) {
	if r == nil {
		return "", fmt.Errorf("range is required for field %q", field)
	}
	lo, hi := "-inf", "+inf"
	if r.GTE() != nil {
		ts, err := dateToUnix(*r.GTE())
		if err != nil {
			return "", err
		}
		lo = strconv.FormatInt(ts, 10)
	}
	if r.LTE() != nil {
		ts, err := dateToUnix(*r.LTE())
		if err != nil {
			return "", err
		}
		hi = strconv.FormatInt(ts, 10)
	}
	return fmt.Sprintf("@%s:[%s %s]", field, lo, hi), nil
}

func dateToUnix(s string) (int64, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid date bound %q: %w", s, err)
	}
	return t.Unix(), nil
}

var wildcardEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
)

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	" ", "\\ ",
)

func vectorToBytes(v []float32) string {
	return rueidis.BinaryString(db.EncodeVector(v))
}
