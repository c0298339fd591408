package ledger

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     Table
		minCols int
		want    Table
	}{
		{
			name:    "empty falls back to defaults",
			raw:     Table{},
			minCols: 6,
			want: Table{
				Headers: DefaultHeaders(),
				Rows:    [][]string{{"1", "", "", "", "", ""}},
				MinCols: 6,
			},
		},
		{
			name: "rows padded and renumbered",
			raw: Table{
				Headers: []string{"رقم", "البيان", AmountHeader},
				Rows:    [][]string{{"9", "a"}, {"7"}},
			},
			minCols: 3,
			want: Table{
				Headers: []string{"رقم", "البيان", AmountHeader},
				Rows:    [][]string{{"1", "a", ""}, {"2", "", ""}},
				MinCols: 3,
			},
		},
		{
			name: "stored floor wins when larger",
			raw: Table{
				Headers: []string{"a", "b", "c", "d"},
				Rows:    [][]string{{"", "x", "y", "z"}},
				MinCols: 4,
			},
			minCols: 2,
			want: Table{
				Headers: []string{"a", "b", "c", "d"},
				Rows:    [][]string{{"1", "x", "y", "z"}},
				MinCols: 4,
			},
		},
		{
			name: "short headers widened to floor",
			raw: Table{
				Headers: []string{"رقم", AmountHeader},
				Rows:    [][]string{{"1", "5$"}},
			},
			minCols: 4,
			want: Table{
				Headers: []string{"رقم", AmountHeader, "عمود 2", "عمود 3"},
				Rows:    [][]string{{"1", "5$", "", ""}},
				MinCols: 4,
			},
		},
		{
			name: "long rows trimmed to header count",
			raw: Table{
				Headers: []string{"رقم", AmountHeader},
				Rows:    [][]string{{"1", "2$", "extra"}},
			},
			minCols: 2,
			want: Table{
				Headers: []string{"رقم", AmountHeader},
				Rows:    [][]string{{"1", "2$"}},
				MinCols: 2,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, tt.minCols, DefaultHeaders())
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}

			again := Normalize(got, tt.minCols, DefaultHeaders())
			if diff := cmp.Diff(got, again); diff != "" {
				t.Errorf("Normalize() not idempotent (-first +second):\n%s", diff)
			}
		})
	}
}

func TestNormalizeDoesNotAliasInput(t *testing.T) {
	raw := Table{
		Headers: []string{"رقم", AmountHeader},
		Rows:    [][]string{{"5", "1$"}},
	}
	_ = Normalize(raw, 2, nil)

	if raw.Rows[0][0] != "5" {
		t.Errorf("input row mutated: %q", raw.Rows[0][0])
	}
}

func TestNormalizeWithoutAnyHeaders(t *testing.T) {
	got := Normalize(Table{}, 0, nil)

	want := Table{Headers: []string{OrdinalHeader}, Rows: [][]string{{"1"}}, MinCols: 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
	for i, row := range got.Rows {
		if len(row) != len(got.Headers) {
			t.Errorf("row %d has %d cells, headers %d", i, len(row), len(got.Headers))
		}
	}
}

func TestPinAmountLast(t *testing.T) {
	tests := []struct {
		name string
		in   Table
		want Table
	}{
		{
			name: "relocates amount column",
			in: Table{
				Headers: []string{"رقم", AmountHeader, "ملاحظة"},
				Rows:    [][]string{{"1", "5$", "x"}, {"2", "7$", "y"}},
				MinCols: 3,
			},
			want: Table{
				Headers: []string{"رقم", "ملاحظة", AmountHeader},
				Rows:    [][]string{{"1", "x", "5$"}, {"2", "y", "7$"}},
				MinCols: 3,
			},
		},
		{
			name: "appends missing amount column",
			in: Table{
				Headers: []string{"رقم", "ملاحظة"},
				Rows:    [][]string{{"1", "x"}},
			},
			want: Table{
				Headers: []string{"رقم", "ملاحظة", AmountHeader},
				Rows:    [][]string{{"1", "x", ""}},
			},
		},
		{
			name: "matches title after trimming",
			in: Table{
				Headers: []string{"رقم", " " + AmountHeader + " ", "ملاحظة"},
				Rows:    [][]string{{"1", "3$", "x"}},
			},
			want: Table{
				Headers: []string{"رقم", "ملاحظة", " " + AmountHeader + " "},
				Rows:    [][]string{{"1", "x", "3$"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PinAmountLast(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("PinAmountLast() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(got, PinAmountLast(got)); diff != "" {
				t.Errorf("PinAmountLast() not idempotent:\n%s", diff)
			}
		})
	}
}

func TestPinAmountLastAlreadyLastIsNoop(t *testing.T) {
	in := DefaultTable("$")
	out := PinAmountLast(in)

	if &in.Rows[0][0] != &out.Rows[0][0] {
		t.Error("expected the same backing rows when amount is already last")
	}
}

func TestTableUnmarshalJSON(t *testing.T) {
	data := `{"headers":["رقم","البيان","المبلغ"],"rows":[[1,"شغل","0$"],"junk"],"minCols":"3"}`

	var got Table
	if err := json.Unmarshal([]byte(data), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := Table{
		Headers: []string{"رقم", "البيان", AmountHeader},
		Rows:    [][]string{{"1", "شغل", "0$"}, {}},
		MinCols: 3,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unmarshal() mismatch (-want +got):\n%s", diff)
	}
}

func TestTableUnmarshalLegacyHeaderTitles(t *testing.T) {
	var got Table
	if err := json.Unmarshal([]byte(`{"headerTitles":["رقم","المبلغ"],"rows":[]}`), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff([]string{"رقم", AmountHeader}, got.Headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeSerializeRoundTrip(t *testing.T) {
	tables := []Table{
		DefaultTable("$"),
		InsertColumn(InsertRow(DefaultTable("IQD"), "IQD"), nil, false),
		Normalize(Table{
			Headers: []string{"رقم", "البيان", AmountHeader},
			Rows:    [][]string{{"1", "شغل", "0$"}},
		}, 3, nil),
	}

	for i, tbl := range tables {
		data, err := json.Marshal(tbl)
		if err != nil {
			t.Fatalf("#%d Marshal() error = %v", i, err)
		}
		var decoded Table
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("#%d Unmarshal() error = %v", i, err)
		}

		want := Normalize(tbl, tbl.MinCols, DefaultHeaders())
		got := Normalize(decoded, tbl.MinCols, DefaultHeaders())
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("#%d round trip mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestAmountsAndReformat(t *testing.T) {
	tbl := Table{
		Headers: []string{"رقم", AmountHeader, "ملاحظة"},
		Rows:    [][]string{{"1", "12.5$", "x"}, {"2", "٣", "y"}},
		MinCols: 3,
	}

	want := []Amount{{Raw: "12.5$", Value: 12.5}, {Raw: "٣", Value: 3}}
	if diff := cmp.Diff(want, tbl.Amounts()); diff != "" {
		t.Errorf("Amounts() mismatch (-want +got):\n%s", diff)
	}

	got := tbl.Reformat("IQD")
	if got.Rows[0][2] != "12.50IQD" || got.Rows[1][2] != "3IQD" {
		t.Errorf("Reformat() rows = %v", got.Rows)
	}
	if tbl.Rows[0][1] != "12.5$" {
		t.Error("Reformat() mutated its receiver")
	}
}
