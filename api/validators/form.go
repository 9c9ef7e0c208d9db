package validators

import (
	"net/url"
	"strconv"
	"strings"
)

// IndexedRows collects repeated form fields named "<field>_N" into one map
// per row. Rows are read for N = 0, 1, 2, ... until "<anchor>_N" is absent;
// rows whose anchor value is blank are skipped. Keys in each map are the
// bare field names.
func IndexedRows(form url.Values, anchor string, fields ...string) []map[string]string {
	rows := []map[string]string{}
	for n := 0; ; n++ {
		suffix := "_" + strconv.Itoa(n)
		values, ok := form[anchor+suffix]
		if !ok {
			return rows
		}
		if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
			continue
		}
		row := map[string]string{anchor: strings.TrimSpace(values[0])}
		for _, field := range fields {
			if field == anchor {
				continue
			}
			row[field] = form.Get(field + suffix)
		}
		rows = append(rows, row)
	}
}
