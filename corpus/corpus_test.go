package corpus

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Descriptor
		wantErr bool
	}{
		{
			name:  "hyphenated dataset",
			input: "astronomy-otelmetrics-otapdictperfile-1000",
			want:  Descriptor{Dataset: "astronomy-otelmetrics", Format: "otapdictperfile", BatchSize: 1000},
		},
		{
			name:  "minimal",
			input: "tpch-proto-10",
			want:  Descriptor{Dataset: "tpch", Format: "proto", BatchSize: 10},
		},
		{
			name:  "many hyphens",
			input: "tpch-sf1-lineitem-arrow-5000",
			want:  Descriptor{Dataset: "tpch-sf1-lineitem", Format: "arrow", BatchSize: 5000},
		},
		{name: "one hyphen", input: "otlp-1000", wantErr: true},
		{name: "no hyphen", input: "payloads", wantErr: true},
		{name: "non numeric size", input: "astronomy-otelmetrics-otlp-big", wantErr: true},
		{name: "zero size", input: "astronomy-otelmetrics-otlp-0", wantErr: true},
		{name: "negative size", input: "astronomy-otlp--5", wantErr: true},
		{name: "empty format", input: "astronomy--100", wantErr: true},
		{name: "empty dataset", input: "-otlp-100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDescriptor(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedName)
				var perr *NameParseError
				require.ErrorAs(t, err, &perr)
				require.Equal(t, tt.input, perr.Name)

				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.input, got.Name())
		})
	}
}

func TestIsPayloadFile(t *testing.T) {
	require.True(t, IsPayloadFile("payload_0001.bin"))
	require.True(t, IsPayloadFile("payload_7.arrow"))
	require.True(t, IsPayloadFile("payload_x.pb"))
	require.False(t, IsPayloadFile("payload_0001.json"))
	require.False(t, IsPayloadFile("metadata.json"))
	require.False(t, IsPayloadFile("data_0001.bin"))
}

type fixture struct {
	fs   afero.Fs
	root string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fsys := afero.NewMemMapFs()
	root := "/corpus"
	require.NoError(t, fsys.MkdirAll(root, 0o755))

	return &fixture{fs: fsys, root: root}
}

func (f *fixture) batch(t *testing.T, name string, payloads []string, metadata string) string {
	t.Helper()
	dir := filepath.Join(f.root, name)
	require.NoError(t, f.fs.MkdirAll(dir, 0o755))
	for i, p := range payloads {
		file := filepath.Join(dir, fmt.Sprintf("payload_%04d.bin", i))
		require.NoError(t, afero.WriteFile(f.fs, file, []byte(p), 0o644))
	}
	if metadata != "" {
		require.NoError(t, afero.WriteFile(f.fs, filepath.Join(dir, MetadataFile), []byte(metadata), 0o644))
	}

	return dir
}

func (f *fixture) registry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(f.fs, f.root)
	require.NoError(t, err)

	return r
}

func TestDiscoverBatches(t *testing.T) {
	f := newFixture(t)
	f.batch(t, "tpch-proto-100", []string{"a"}, "")
	f.batch(t, "astronomy-otelmetrics-otlp-1000", []string{"b", "c"}, "")
	f.batch(t, "empty-otlp-10", nil, `{"total_data_points": 1}`)
	require.NoError(t, afero.WriteFile(f.fs, filepath.Join(f.root, "README.md"), []byte("x"), 0o644))
	other := filepath.Join(f.root, "notes-otlp-5")
	require.NoError(t, f.fs.MkdirAll(other, 0o755))
	require.NoError(t, afero.WriteFile(f.fs, filepath.Join(other, "payload_1.json"), []byte("{}"), 0o644))

	dirs, err := f.registry(t).DiscoverBatches()
	require.NoError(t, err)
	require.Equal(t, []BatchDir{
		{Name: "astronomy-otelmetrics-otlp-1000", Path: filepath.Join(f.root, "astronomy-otelmetrics-otlp-1000")},
		{Name: "tpch-proto-100", Path: filepath.Join(f.root, "tpch-proto-100")},
	}, dirs)
}

func TestDiscoverBatches_MissingRoot(t *testing.T) {
	r, err := NewRegistry(afero.NewMemMapFs(), "/nope")
	require.NoError(t, err)

	_, err = r.DiscoverBatches()
	var derr *DiscoveryError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, "/nope", derr.Path)
}

func TestReadPayloads_FileNameOrder(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(f.root, "ds-otlp-3")
	require.NoError(t, f.fs.MkdirAll(dir, 0o755))
	for _, name := range []string{"payload_0002.bin", "payload_0000.bin", "payload_0001.bin", "metadata.json"} {
		require.NoError(t, afero.WriteFile(f.fs, filepath.Join(dir, name), []byte(name), 0o644))
	}

	payloads, err := f.registry(t).ReadPayloads(dir)
	require.NoError(t, err)
	require.Equal(t, [][]byte{
		[]byte("payload_0000.bin"),
		[]byte("payload_0001.bin"),
		[]byte("payload_0002.bin"),
	}, payloads)
}

func TestLoad(t *testing.T) {
	f := newFixture(t)
	dir := f.batch(t, "astronomy-otelmetrics-otlp-1000", []string{"hello", "world!"}, `{"total_data_points": 4821, "num_payloads": 2}`)

	b, err := f.registry(t).Load(BatchDir{Name: "astronomy-otelmetrics-otlp-1000", Path: dir})
	require.NoError(t, err)
	require.NoError(t, b.Validate())
	require.Equal(t, Descriptor{Dataset: "astronomy-otelmetrics", Format: "otlp", BatchSize: 1000}, b.Descriptor)
	require.Equal(t, 4821, b.Points)
	require.Equal(t, 11, b.TotalBytes)
	require.Len(t, b.Payloads, 2)
	require.NotZero(t, b.Fingerprint)
}

func TestLoad_MissingMetadataIsTolerated(t *testing.T) {
	f := newFixture(t)
	dir := f.batch(t, "tpch-proto-100", []string{"row"}, "")

	b, err := f.registry(t).Load(BatchDir{Name: "tpch-proto-100", Path: dir})
	require.NoError(t, err)
	require.Zero(t, b.Points)
}

func TestLoad_MalformedMetadata(t *testing.T) {
	f := newFixture(t)
	dir := f.batch(t, "tpch-proto-100", []string{"row"}, "{not json")

	_, err := f.registry(t).Load(BatchDir{Name: "tpch-proto-100", Path: dir})
	var derr *DiscoveryError
	require.ErrorAs(t, err, &derr)
}

func TestLoad_MetadataSchemaViolations(t *testing.T) {
	tests := []struct {
		name     string
		metadata string
	}{
		{name: "negative points", metadata: `{"total_data_points": -3, "num_payloads": 1}`},
		{name: "string points", metadata: `{"total_data_points": "12"}`},
		{name: "fractional payloads", metadata: `{"total_data_points": 12, "num_payloads": 1.5}`},
		{name: "missing points", metadata: `{"num_payloads": 1}`},
		{name: "not an object", metadata: `[1, 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			dir := f.batch(t, "tpch-proto-100", []string{"row"}, tt.metadata)

			_, err := f.registry(t).Load(BatchDir{Name: "tpch-proto-100", Path: dir})
			require.ErrorIs(t, err, ErrInvalidMetadata)
			var derr *DiscoveryError
			require.ErrorAs(t, err, &derr)
		})
	}
}

func TestReadMetadata_ExtraKeysAllowed(t *testing.T) {
	f := newFixture(t)
	dir := f.batch(t, "tpch-proto-100", []string{"row"}, `{"total_data_points": 7, "num_payloads": 1, "generator": "v2"}`)

	md, err := f.registry(t).ReadMetadata(dir)
	require.NoError(t, err)
	require.Equal(t, Metadata{TotalDataPoints: 7, NumPayloads: 1}, md)
}

func TestLoad_MalformedName(t *testing.T) {
	f := newFixture(t)
	dir := f.batch(t, "otlp-1000", []string{"x"}, "")

	_, err := f.registry(t).Load(BatchDir{Name: "otlp-1000", Path: dir})
	require.ErrorIs(t, err, ErrMalformedName)
}

func TestLoad_EmptyCorpusRejected(t *testing.T) {
	f := newFixture(t)
	dir := f.batch(t, "astronomy-otelmetrics-otlp-10", nil, `{"total_data_points": 0}`)

	b, err := f.registry(t).Load(BatchDir{Name: "astronomy-otelmetrics-otlp-10", Path: dir})
	require.NoError(t, err)
	require.Empty(t, b.Payloads)
	require.ErrorIs(t, b.Validate(), ErrEmptyCorpus)
}

func TestFingerprint_DependsOnOrderAndContent(t *testing.T) {
	f := newFixture(t)
	a := f.batch(t, "a-otlp-1", []string{"x", "y"}, "")
	b := f.batch(t, "b-otlp-1", []string{"y", "x"}, "")
	c := f.batch(t, "c-otlp-1", []string{"x", "y"}, "")

	r := f.registry(t)
	la, err := r.Load(BatchDir{Name: "a-otlp-1", Path: a})
	require.NoError(t, err)
	lb, err := r.Load(BatchDir{Name: "b-otlp-1", Path: b})
	require.NoError(t, err)
	lc, err := r.Load(BatchDir{Name: "c-otlp-1", Path: c})
	require.NoError(t, err)

	require.NotEqual(t, la.Fingerprint, lb.Fingerprint)
	require.Equal(t, la.Fingerprint, lc.Fingerprint)
}
