package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ArowuTest/raffle-backend/internal/models"
)

// couponColumns is the expected header of a coupon import file
var couponColumns = []string{"code", "kind", "value", "maxUses", "expiresAt"}

// CouponRowError describes a rejected row of a coupon import
type CouponRowError struct {
	Line int
	Err  error
}

func (e CouponRowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ParseCouponCSV reads coupons from CSV with the columns code,kind,value,maxUses,expiresAt.
// maxUses and expiresAt may be empty; expiresAt is RFC 3339 or YYYY-MM-DD.
// Bad rows are reported and skipped; a malformed header fails the whole file.
func ParseCouponCSV(r io.Reader) ([]*models.Coupon, []CouponRowError, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range couponColumns[:3] {
		if _, ok := index[strings.ToLower(col)]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", col)
		}
	}

	var coupons []*models.Coupon
	var rowErrs []CouponRowError
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, CouponRowError{Line: line, Err: err})
			continue
		}

		field := func(name string) string {
			i, ok := index[strings.ToLower(name)]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		coupon, err := parseCouponRow(field)
		if err != nil {
			rowErrs = append(rowErrs, CouponRowError{Line: line, Err: err})
			continue
		}
		coupons = append(coupons, coupon)
	}
	return coupons, rowErrs, nil
}

func parseCouponRow(field func(string) string) (*models.Coupon, error) {
	code := NormalizeCouponCode(field("code"))
	if code == "" {
		return nil, errors.New("code is required")
	}

	kind := models.CouponKind(strings.ToUpper(field("kind")))
	if kind != models.CouponKindBonusNumbers && kind != models.CouponKindPercentDiscount {
		return nil, fmt.Errorf("unknown kind %q", field("kind"))
	}

	value, err := strconv.Atoi(field("value"))
	if err != nil {
		return nil, fmt.Errorf("invalid value %q", field("value"))
	}

	coupon := &models.Coupon{Code: code, Kind: kind, Value: value, Active: true}

	if raw := field("maxUses"); raw != "" {
		maxUses, err := strconv.Atoi(raw)
		if err != nil || maxUses < 1 {
			return nil, fmt.Errorf("invalid maxUses %q", raw)
		}
		coupon.MaxUses = &maxUses
	}

	if raw := field("expiresAt"); raw != "" {
		expiresAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			expiresAt, err = time.Parse("2006-01-02", raw)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid expiresAt %q", raw)
		}
		coupon.ExpiresAt = &expiresAt
	}
	return coupon, nil
}
