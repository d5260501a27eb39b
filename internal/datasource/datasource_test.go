package datasource

import "testing"

func TestCompressionFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want Compression
	}{
		{"projects.csv", None},
		{"projects.csv.gz", Gzip},
		{"dump/commits.CSV.GZ", Gzip},
		{"users.csv.zst", Zstd},
		{"users.csv.zstd", Zstd},
		{"watchers.csv.xz", XZ},
		{"https://example.com/dump/commits.csv.gz?sig=abc", Gzip},
		{"https://example.com/dump/commits.csv#frag.gz", None},
		{"", None},
	}
	for _, tt := range tests {
		if got := CompressionFor(tt.name); got != tt.want {
			t.Errorf("CompressionFor(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
