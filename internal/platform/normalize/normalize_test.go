package normalize

import "testing"

func TestKey_FoldsDanishVariants(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a    string
		b    string
	}{
		{"slash vs hyphen with diacritics", "Virum-Sørgenfri", "Virum/Sorgenfri"},
		{"o-slash vs plain o", "Brønshøj", "Bronshoj"},
		{"aa vs ring-a", "Aarhus BTK", "Århus BTK"},
		{"ae vs umlaut", "Næstved", "Nästved"},
		{"case and spacing", "  hillerød  gi ", "HILLERØD GI"},
		{"dropped punctuation", "B.75", "B75"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if Key(tc.a) != Key(tc.b) {
				t.Fatalf("keys differ: %q -> %q, %q -> %q", tc.a, Key(tc.a), tc.b, Key(tc.b))
			}
		})
	}
}

func TestKey_Values(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Virum-Sørgenfri", "virum sorgenfri"},
		{"Brønshøj BTK", "bronshoj btk"},
		{"Aarhus", "arhus"},
		{"  ", ""},
		{"'t Hof", "t hof"},
		{"Sisu/MBK", "sisu mbk"},
	}

	for _, tc := range cases {
		if got := Key(tc.in); got != tc.want {
			t.Fatalf("Key(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestKey_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Virum-Sørgenfri",
		"Århus BTK",
		"B.75 Hjørring",
		"Köpenhamns BTK",
		"aa-åå/aa",
	}

	for _, in := range inputs {
		once := Key(in)
		if twice := Key(once); twice != once {
			t.Fatalf("Key not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestKey_DistinctNamesStayDistinct(t *testing.T) {
	t.Parallel()

	if Key("Hillerød GI") == Key("Hillerød BTK") {
		t.Fatalf("different club names collapsed to the same key")
	}
}
