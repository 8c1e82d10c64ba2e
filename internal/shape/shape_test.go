package shape_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mickamy/reltrack/internal/shape"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name    string
		in      any
		wantOld any
		wantNew any
	}{
		{
			name:    "mapping of pairs and bare values",
			in:      shape.Map{"title": shape.Pair{"draft", "final"}, "body": "same"},
			wantOld: shape.Map{"title": "draft", "body": "same"},
			wantNew: shape.Map{"title": "final", "body": "same"},
		},
		{
			name:    "plain map with array pair",
			in:      map[string]any{"n": [2]any{1, 2}},
			wantOld: shape.Map{"n": 1},
			wantNew: shape.Map{"n": 2},
		},
		{
			name:    "empty mapping",
			in:      shape.Map{},
			wantOld: shape.Map{},
			wantNew: shape.Map{},
		},
		{
			name: "sequence of mappings",
			in: []map[string]any{
				{"title": shape.Pair{"a", "b"}},
				{},
			},
			wantOld: shape.Seq{shape.Map{"title": "a"}, shape.Map{}},
			wantNew: shape.Seq{shape.Map{"title": "b"}, shape.Map{}},
		},
		{
			name:    "scalar unchanged",
			in:      42,
			wantOld: 42,
			wantNew: 42,
		},
		{
			name:    "absent unchanged",
			in:      nil,
			wantOld: nil,
			wantNew: nil,
		},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			gotOld, gotNew := shape.Split(tc.in)
			if diff := cmp.Diff(tc.wantOld, gotOld); diff != "" {
				t.Fatalf("Split(%#v) old mismatch (-want +got):\n%s", tc.in, diff)
			}
			if diff := cmp.Diff(tc.wantNew, gotNew); diff != "" {
				t.Fatalf("Split(%#v) new mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestSplitZipRoundTrip(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		in   any
	}{
		{name: "mapping", in: shape.Map{"a": shape.Pair{1, 2}, "b": shape.Pair{nil, "x"}}},
		{name: "sequence", in: shape.Seq{
			shape.Map{"id": shape.Pair{1, 1}},
			shape.Map{"id": shape.Pair{2, 3}, "name": shape.Pair{"old", "new"}},
		}},
		{name: "empty sequence", in: shape.Seq{}},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := shape.Zip(shape.Split(tc.in))
			if diff := cmp.Diff(tc.in, got); diff != "" {
				t.Fatalf("Zip(Split(%#v)) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestDerive(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name    string
		shadow  any
		current any
		wantOld any
		wantNew any
	}{
		{
			name:    "embedded child edited after capture",
			shadow:  shape.Map{},
			current: shape.Map{"title": shape.Pair{"a", "b"}},
			wantOld: shape.Map{"title": "a"},
			wantNew: shape.Map{"title": "b"},
		},
		{
			name:    "dirty at capture and still dirty",
			shadow:  shape.Map{"title": shape.Pair{"a", "b"}},
			current: shape.Map{"title": shape.Pair{"a", "b"}},
			wantOld: shape.Map{"title": "a"},
			wantNew: shape.Map{"title": "b"},
		},
		{
			name:    "dirty at capture and cleared since",
			shadow:  shape.Map{"title": shape.Pair{"a", "b"}},
			current: shape.Map{},
			wantOld: shape.Map{},
			wantNew: shape.Map{},
		},
		{
			name:    "bare value against captured pair",
			shadow:  shape.Map{"id": shape.Pair{1, 2}},
			current: shape.Map{"id": 3},
			wantOld: shape.Map{"id": 2},
			wantNew: shape.Map{"id": 3},
		},
		{
			name:    "key unknown to the shadow",
			shadow:  shape.Map{},
			current: shape.Map{"id": 1},
			wantOld: shape.Map{"id": 1},
			wantNew: shape.Map{"id": 1},
		},
		{
			name:    "referenced key changed",
			shadow:  shape.Map{"id": 1},
			current: shape.Map{"id": 2},
			wantOld: shape.Map{"id": 1},
			wantNew: shape.Map{"id": 2},
		},
		{
			name:    "absent to present",
			shadow:  nil,
			current: shape.Map{"id": 7},
			wantOld: nil,
			wantNew: shape.Map{"id": 7},
		},
		{
			name:    "present to absent",
			shadow:  shape.Map{"id": 7},
			current: nil,
			wantOld: shape.Map{"id": 7},
			wantNew: nil,
		},
		{
			name:    "absent to absent",
			shadow:  nil,
			current: nil,
			wantOld: nil,
			wantNew: nil,
		},
		{
			name:    "sequence grows",
			shadow:  shape.Seq{shape.Map{"id": 1}, shape.Map{"id": 2}},
			current: shape.Seq{shape.Map{"id": 1}, shape.Map{"id": 2}, shape.Map{"id": 3}},
			wantOld: shape.Seq{shape.Map{"id": 1}, shape.Map{"id": 2}},
			wantNew: shape.Seq{shape.Map{"id": 1}, shape.Map{"id": 2}, shape.Map{"id": 3}},
		},
		{
			name:    "sequence element cleared after capture",
			shadow:  shape.Seq{shape.Map{"title": shape.Pair{"a", "b"}}},
			current: shape.Seq{shape.Map{}, shape.Map{"title": shape.Pair{nil, "c"}}},
			wantOld: shape.Seq{shape.Map{}},
			wantNew: shape.Seq{shape.Map{}, shape.Map{"title": "c"}},
		},
		{
			name:    "sequence shrinks",
			shadow:  shape.Seq{shape.Map{"id": 1}, shape.Map{"id": 2}},
			current: shape.Seq{shape.Map{"id": 2}},
			wantOld: shape.Seq{shape.Map{"id": 1}, shape.Map{"id": 2}},
			wantNew: shape.Seq{shape.Map{"id": 2}},
		},
		{
			name:    "scalar is never diffed",
			shadow:  1,
			current: 2,
			wantOld: 2,
			wantNew: 2,
		},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			gotOld, gotNew, err := shape.Derive(tc.shadow, tc.current)
			if err != nil {
				t.Fatalf("Derive(%#v, %#v) error = %v", tc.shadow, tc.current, err)
			}
			if diff := cmp.Diff(tc.wantOld, gotOld); diff != "" {
				t.Fatalf("Derive old mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.wantNew, gotNew); diff != "" {
				t.Fatalf("Derive new mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeriveMismatch(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name    string
		shadow  any
		current any
	}{
		{name: "mapping against sequence", shadow: shape.Map{"id": 1}, current: shape.Seq{}},
		{name: "sequence against mapping", shadow: shape.Seq{}, current: shape.Map{}},
		{name: "non mapping element in shadow", shadow: shape.Seq{1}, current: shape.Seq{}},
		{name: "non mapping element in current", shadow: shape.Seq{}, current: []any{"x"}},
		{name: "scalar against mapping", shadow: 1, current: shape.Map{"id": 1}},
		{name: "sequence against scalar", shadow: shape.Seq{}, current: "x"},
		{name: "absent against scalar", shadow: nil, current: 2},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := shape.Derive(tc.shadow, tc.current)
			if !errors.Is(err, shape.ErrMismatch) {
				t.Fatalf("Derive(%#v, %#v) error = %v, want ErrMismatch", tc.shadow, tc.current, err)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	type objectID struct{ b [4]byte }

	tcs := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "absent equals absent", a: nil, b: nil, want: true},
		{name: "absent differs from empty mapping", a: nil, b: shape.Map{}, want: false},
		{name: "absent differs from empty sequence", a: shape.Seq{}, b: nil, want: false},
		{name: "equal mappings", a: shape.Map{"k": 1}, b: shape.Map{"k": 1}, want: true},
		{name: "differing values", a: shape.Map{"k": 1}, b: shape.Map{"k": 2}, want: false},
		{name: "unexported id fields", a: shape.Map{"id": objectID{[4]byte{1}}}, b: shape.Map{"id": objectID{[4]byte{1}}}, want: true},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := shape.Equal(tc.a, tc.b); got != tc.want {
				t.Fatalf("Equal(%#v, %#v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
