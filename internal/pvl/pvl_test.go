package pvl

import (
	"errors"
	"testing"
	"time"
)

const sampleLabel = `Object = IsisCube
  Object = Core
    StartByte   = 65537
    Format      = Tile
    TileSamples = 128
    TileLines   = 128

    Group = Dimensions
      Samples = 800
      Lines   = 800
      Bands   = 7
    End_Group

    Group = Pixels
      Type       = Real
      ByteOrder  = Lsb
      Base       = 0.0
      Multiplier = 1.0
    End_Group
  End_Object

  /* Instrument metadata */
  Group = Instrument
    SpacecraftName   = "Galileo Orbiter"
    TargetName       = EUROPA
    StartTime        = 1997-02-20T17:06:17.717
    ExposureDuration = 62.5 <milliseconds>
    FrameDuration    = 16#FF#
  End_Group

  Group = BandBin
    FilterName = CLEAR
    Center     = (0.611 <micrometers>, 0.0)
    Name       = ("CLEAR", "Phase Angle", "Emission Angle",
                  "Incidence Angle", Latitude, Longitude,
                  "Pixel Resolution")
  End_Group
End_Object

Object = Label
  Bytes = 65536
End_Object

Object = Table
  Name      = InstrumentPosition
  StartByte = 100
  Group = Field
    Name = J2000X
    Type = Double
    Size = 1
  End_Group
End_Object

Object = Table
  Name = SunPosition
End_Object
End
binary data follows` + "\x00\x01\x02"

func TestParseSampleLabel(t *testing.T) {
	root, n, err := Parse([]byte(sampleLabel))
	if err != nil {
		t.Fatalf("Failed to parse label: %v", err)
	}
	if n <= 0 || n > len(sampleLabel) {
		t.Errorf("Expected consumed bytes within label, got %d", n)
	}

	dims, ok := root.Path("IsisCube", "Core", "Dimensions")
	if !ok {
		t.Fatal("Dimensions group not found")
	}
	for key, want := range map[string]int64{"Samples": 800, "Lines": 800, "Bands": 7} {
		v, ok := dims.Get(key)
		if !ok {
			t.Fatalf("Keyword %s not found", key)
		}
		got, err := v.AsInt()
		if err != nil {
			t.Fatalf("Keyword %s: %v", key, err)
		}
		if got != want {
			t.Errorf("Expected %s = %d, got %d", key, want, got)
		}
	}

	tables := root.Blocks(Object, "Table")
	if len(tables) != 2 {
		t.Fatalf("Expected 2 tables, got %d", len(tables))
	}
	name, _ := tables[1].Get("name")
	if name.Text != "SunPosition" {
		t.Errorf("Expected second table SunPosition, got %q", name.Text)
	}
}

func TestParseValues(t *testing.T) {
	root, _, err := Parse([]byte(sampleLabel))
	if err != nil {
		t.Fatalf("Failed to parse label: %v", err)
	}
	inst, ok := root.Path("IsisCube", "Instrument")
	if !ok {
		t.Fatal("Instrument group not found")
	}

	craft, _ := inst.Get("SpacecraftName")
	if craft.Kind != String || craft.Text != "Galileo Orbiter" {
		t.Errorf("Expected quoted spacecraft name, got %v %q", craft.Kind, craft.Text)
	}

	target, _ := inst.Get("TargetName")
	if target.Kind != Symbol || target.Text != "EUROPA" {
		t.Errorf("Expected symbol EUROPA, got %v %q", target.Kind, target.Text)
	}

	exposure, _ := inst.Get("ExposureDuration")
	if exposure.Kind != Real || exposure.Float != 62.5 || exposure.Unit != "milliseconds" {
		t.Errorf("Expected 62.5 <milliseconds>, got %s", exposure)
	}

	frame, _ := inst.Get("FrameDuration")
	if frame.Kind != Integer || frame.Int != 255 {
		t.Errorf("Expected based integer 255, got %s", frame)
	}

	start, _ := inst.Get("StartTime")
	ts, err := start.AsTime()
	if err != nil {
		t.Fatalf("Failed to parse start time: %v", err)
	}
	want := time.Date(1997, time.February, 20, 17, 6, 17, 717000000, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("Expected %v, got %v", want, ts)
	}

	bandBin, _ := root.Path("IsisCube", "BandBin")
	names, _ := bandBin.Get("Name")
	layers, err := names.Strings()
	if err != nil {
		t.Fatalf("Failed to read layer names: %v", err)
	}
	if len(layers) != 7 || layers[1] != "Phase Angle" || layers[4] != "Latitude" {
		t.Errorf("Unexpected layer names: %v", layers)
	}

	center, _ := bandBin.Get("Center")
	floats, err := center.Floats()
	if err != nil {
		t.Fatalf("Failed to read centers: %v", err)
	}
	if len(floats) != 2 || floats[0] != 0.611 || center.Items[0].Unit != "micrometers" {
		t.Errorf("Unexpected centers: %s", center)
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"1997-02-20T17:06:17.717", time.Date(1997, 2, 20, 17, 6, 17, 717000000, time.UTC)},
		{"1997-051T17:06:17.717Z", time.Date(1997, 2, 20, 17, 6, 17, 717000000, time.UTC)},
		{"2015-07-14T11:49:57", time.Date(2015, 7, 14, 11, 49, 57, 0, time.UTC)},
		{"2000-366T00:00:00", time.Date(2000, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"1996-06-27", time.Date(1996, 6, 27, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTime(tt.in)
		if err != nil {
			t.Errorf("ParseTime(%q) failed: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTime(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}

	for _, bad := range []string{"yesterday", "1997-400T00:00:00", "1997-02-20T25:00"} {
		if _, err := ParseTime(bad); err == nil {
			t.Errorf("ParseTime(%q): expected error", bad)
		}
	}
}

func TestParseContinuations(t *testing.T) {
	src := "Object = A\n" +
		"  Description = \"a long\n      description\"\n" +
		"  Path = $galileo/kernels/ck/ck-\n      file.bc\n" +
		"  Nested = ((1, 2), (3, 4))\n" +
		"  Empty = ()\n" +
		"  Flags = {A, B}\n" +
		"# comment at line start\n" +
		"  Note = 'single quoted'\n" +
		"End_Object\nEnd\n"

	root, _, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	obj, _ := root.Object("A")

	desc, _ := obj.Get("Description")
	if desc.Text != "a long description" {
		t.Errorf("Expected collapsed string, got %q", desc.Text)
	}
	path, _ := obj.Get("Path")
	if path.Text != "$galileo/kernels/ck/ckfile.bc" {
		t.Errorf("Unexpected continued word %q", path.Text)
	}
	nested, _ := obj.Get("Nested")
	if len(nested.Items) != 2 || len(nested.Items[1].Items) != 2 || nested.Items[1].Items[0].Int != 3 {
		t.Errorf("Unexpected nested sequence %s", nested)
	}
	empty, _ := obj.Get("Empty")
	if empty.Kind != Sequence || len(empty.Items) != 0 {
		t.Errorf("Expected empty sequence, got %s", empty)
	}
	flags, _ := obj.Get("Flags")
	if flags.Kind != Set || len(flags.Items) != 2 {
		t.Errorf("Expected set of 2, got %s", flags)
	}
	note, _ := obj.Get("Note")
	if note.Kind != Symbol || note.Text != "single quoted" {
		t.Errorf("Expected single quoted symbol, got %s", note)
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"missing end":         "Object = IsisCube\n  A = 1\nEnd_Object\n",
		"unclosed object":     "Object = IsisCube\n  A = 1\nEnd\n",
		"mismatched close":    "Object = IsisCube\nEnd_Group\nEnd\n",
		"missing value":       "Object = IsisCube\n  A =\nEnd_Object\nEnd\n",
		"missing equals":      "Object = IsisCube\n  A 1\nEnd_Object\nEnd\n",
		"unterminated list":   "Object = IsisCube\n  A = (1, 2\n",
		"unterminated str":    "Object = IsisCube\n  A = \"abc\n",
		"binary garbage":      "Object = IsisCube\n  A = 1\x00\x01\x02",
		"unterminated cmt":    "Object = IsisCube /* no end",
		"truncated midway":    "Object = IsisCube\n  Object = Core\n    StartByte = 6",
		"stray close paren":   "Object = IsisCube\n  A = )\nEnd_Object\nEnd\n",
		"unterminated unit":   "Object = IsisCube\n  A = 1 <km\nEnd_Object\nEnd\n",
		"object without name": "Object = (1)\nEnd_Object\nEnd\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse([]byte(src))
			if err == nil {
				t.Fatal("Expected parse error")
			}
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("Expected ErrSyntax, got %v", err)
			}
		})
	}
}
