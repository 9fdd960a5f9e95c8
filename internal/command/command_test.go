package command

import "testing"

func TestPipelineValidate(t *testing.T) {
	cases := []struct {
		name    string
		p       Pipeline
		wantErr bool
	}{
		{
			name:    "empty",
			p:       Pipeline{},
			wantErr: true,
		},
		{
			name: "single stage",
			p: Pipeline{
				New("ffmpeg", "-i", "in.mkv"),
			},
			wantErr: false,
		},
		{
			name: "two stage well wired",
			p: Pipeline{
				New("vspipe", "script.vpy", "-").WithStdout(StdioPipe),
				New("SvtAv1EncApp", "-i", "-").WithStdin(StdioPipe),
			},
			wantErr: false,
		},
		{
			name: "two stage missing pipe stdout",
			p: Pipeline{
				New("vspipe", "script.vpy", "-"),
				New("SvtAv1EncApp", "-i", "-").WithStdin(StdioPipe),
			},
			wantErr: true,
		},
		{
			name: "two stage missing pipe stdin",
			p: Pipeline{
				New("vspipe", "script.vpy", "-").WithStdout(StdioPipe),
				New("SvtAv1EncApp", "-i", "-"),
			},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestDescriptorString(t *testing.T) {
	d := New("ffmpeg", "-i", "in put.mkv", "-crf", "27")
	got := d.String()
	want := "ffmpeg -i 'in put.mkv' -crf 27"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestWithHelpers(t *testing.T) {
	base := New("prog", "a")
	piped := base.WithStdin(StdioPipe).WithStdout(StdioInherit).WithStderr(StdioNull).WithDir("/tmp")

	if base.Stdin != StdioNull || base.Stdout != StdioCapture {
		t.Fatalf("base descriptor was mutated: %+v", base)
	}
	if piped.Stdin != StdioPipe || piped.Stdout != StdioInherit || piped.Stderr != StdioNull || piped.Dir != "/tmp" {
		t.Fatalf("unexpected descriptor: %+v", piped)
	}
}
