package parts

import (
	"reflect"
	"testing"
)

func TestParseMetadata(t *testing.T) {
	source := `"""
Part: Parametric Bearing
Description: A ball bearing with configurable bore.
Part Name: bearing_608
Tags: Bearing, rotation , STEEL
"""
import things
`
	meta, tags := parseMetadata(source)

	want := map[string]string{
		"part":        "Parametric Bearing",
		"description": "A ball bearing with configurable bore.",
		"part_name":   "bearing_608",
		"tags":        "Bearing, rotation , STEEL",
	}
	if !reflect.DeepEqual(meta, want) {
		t.Errorf("meta = %#v, want %#v", meta, want)
	}
	wantTags := []string{"bearing", "rotation", "steel"}
	if !reflect.DeepEqual(tags, wantTags) {
		t.Errorf("tags = %v, want %v", tags, wantTags)
	}
}

func TestParseMetadataNoDocstring(t *testing.T) {
	meta, tags := parseMetadata("x = 1\npublish box\n")
	if len(meta) != 0 {
		t.Errorf("meta = %v, want empty", meta)
	}
	if tags != nil {
		t.Errorf("tags = %v, want nil", tags)
	}
}

func TestParseMetadataUnterminatedDocstring(t *testing.T) {
	meta, _ := parseMetadata(`"""` + "\nPart: dangling\n")
	if len(meta) != 0 {
		t.Errorf("unterminated docstring should yield nothing, got %v", meta)
	}
}

func TestParseMetadataSkipsNonPairs(t *testing.T) {
	source := `"""
This part models a hinge.
Part: Hinge
just prose with no value meaning
"""`
	meta, _ := parseMetadata(source)
	if meta["part"] != "Hinge" {
		t.Errorf("part = %q, want Hinge", meta["part"])
	}
	if len(meta) != 1 {
		t.Errorf("prose lines should be ignored, got %v", meta)
	}
}
