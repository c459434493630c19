package structs

import (
	"reflect"
	"testing"

	tt "github.com/astadb/kquery/internal/testtools"
)

func TestLayoutOf(t *testing.T) {
	tests := []struct {
		desc                string
		obj                 interface{}
		expectedLayout      Layout
		expecteErrToContain []string
	}{
		{
			desc: "should list the fields tagged `kquery` in declaration order",
			obj: struct {
				ShowStr string `kquery:"show_str"`
				HideStr string
				ShowInt int `kquery:"show_int,omitempty"`
				HideInt int
			}{},
			expectedLayout: Layout{
				{AttrName: "ShowStr", Column: "show_str", Index: 0},
				{AttrName: "ShowInt", Column: "show_int", Index: 2, OmitEmpty: true},
			},
		},
		{
			desc: "should ignore private fields if they are not tagged",
			obj: struct {
				ShowStr string `kquery:"show_str"`
				hideStr string
			}{},
			expectedLayout: Layout{
				{AttrName: "ShowStr", Column: "show_str", Index: 0},
			},
		},
		{
			desc: "should report error for tagged private fields",
			obj: struct {
				ShowStr string `kquery:"show_str"`
				hideStr string `kquery:"hide_str"`
			}{},
			expecteErrToContain: []string{"must be exported"},
		},
		{
			desc: "should report error for repeated tag names",
			obj: struct {
				Name1 string `kquery:"name"`
				Name2 string `kquery:"name"`
			}{},
			expecteErrToContain: []string{"multiple attributes", "'name'"},
		},
		{
			desc: "should report error for unknown tag options",
			obj: struct {
				Name string `kquery:"name,json"`
			}{},
			expecteErrToContain: []string{"unknown kquery tag option", "json", "Name"},
		},
		{
			desc: "should report error for structs with no tags",
			obj: struct {
				Name string
			}{},
			expecteErrToContain: []string{"at least one attribute"},
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			layout, err := LayoutOf(reflect.TypeOf(test.obj))
			if test.expecteErrToContain != nil {
				tt.AssertErrContains(t, err, test.expecteErrToContain...)
				return
			}
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, layout, test.expectedLayout)

			// The second call is served by the cache:
			cached, err := LayoutOf(reflect.TypeOf(test.obj))
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, cached, layout)
		})
	}
}

func TestStructToMap(t *testing.T) {
	type user struct {
		ID      int     `kquery:"id,omitempty"`
		Name    string  `kquery:"name"`
		Age     *int    `kquery:"age"`
		Email   *string `kquery:"email"`
		Ignored string
	}

	age := 42

	tests := []struct {
		desc                string
		obj                 interface{}
		expectedMap         map[string]interface{}
		expecteErrToContain []string
	}{
		{
			desc: "should dereference valid pointers and ignore nil ones",
			obj: user{
				Name: "Bia",
				Age:  &age,
			},
			expectedMap: map[string]interface{}{
				"name": "Bia",
				"age":  42,
			},
		},
		{
			desc: "should accept struct pointers",
			obj: &user{
				ID:   12,
				Name: "Bia",
			},
			expectedMap: map[string]interface{}{
				"id":   12,
				"name": "Bia",
			},
		},
		{
			desc:                "should report error for non struct inputs",
			obj:                 map[string]interface{}{},
			expecteErrToContain: []string{"must be a struct", "map[string]interface {}"},
		},
		{
			desc:                "should report error for nil pointers",
			obj:                 (*user)(nil),
			expecteErrToContain: []string{"must be a struct", "nil"},
		},
		{
			desc:                "should report error for nil inputs",
			obj:                 nil,
			expecteErrToContain: []string{"must be a struct", "nil"},
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			m, err := StructToMap(test.obj)
			if test.expecteErrToContain != nil {
				tt.AssertErrContains(t, err, test.expecteErrToContain...)
				return
			}
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, m, test.expectedMap)
		})
	}
}
