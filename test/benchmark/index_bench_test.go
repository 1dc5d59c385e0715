// Package benchmark contains Go benchmarks for the index store, tokenizer,
// and search pipeline, measuring throughput and allocation behaviour.
package benchmark

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/rwnet/sitesearch/internal/index"
)

// BenchmarkStoreAddDocument measures per-document insert throughput into the
// inverted index.
func BenchmarkStoreAddDocument(b *testing.B) {
	s := index.New()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		url := fmt.Sprintf("example.site/page%d.rwml", i)
		s.AddDocument(url, "benchmark page", "this benchmark document carries a handful of distinct terms for measuring indexing throughput", index.TypeRWML)
	}
}

// BenchmarkStorePostings measures single-term posting lookup over 10 000
// documents.
func BenchmarkStorePostings(b *testing.B) {
	s := index.New()
	for i := 0; i < 10000; i++ {
		url := fmt.Sprintf("example.site/page%d.rwml", i)
		s.AddDocument(url, "search page", "site search with crawling indexing and query evaluation", index.TypeRWML)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		postings := s.Postings("search")
		_ = postings
	}
}

// BenchmarkStorePostingsParallel measures concurrent read throughput against
// the shared reader lock.
func BenchmarkStorePostingsParallel(b *testing.B) {
	s := index.New()
	for i := 0; i < 10000; i++ {
		url := fmt.Sprintf("example.site/page%d.rwml", i)
		s.AddDocument(url, "search page", "site search with crawling indexing and query evaluation", index.TypeRWML)
	}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			postings := s.Postings("search")
			_ = postings
		}
	})
}

// BenchmarkPersist measures whole-index serialization cost at varying corpus
// sizes.
func BenchmarkPersist(b *testing.B) {
	for _, docs := range []int{100, 1000} {
		s := index.New()
		for i := 0; i < docs; i++ {
			url := fmt.Sprintf("example.site/page%d.rwml", i)
			s.AddDocument(url, "page", "content with enough words to make serialization measurable across the corpus", index.TypeRWML)
		}
		b.Run(fmt.Sprintf("docs_%d", docs), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				var buf bytes.Buffer
				if err := s.Persist(&buf); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkRestore measures deserialization of a 1000-document blob.
func BenchmarkRestore(b *testing.B) {
	src := index.New()
	for i := 0; i < 1000; i++ {
		url := fmt.Sprintf("example.site/page%d.rwml", i)
		src.AddDocument(url, "page", "content with enough words to make deserialization measurable", index.TypeRWML)
	}
	var blob bytes.Buffer
	if err := src.Persist(&blob); err != nil {
		b.Fatal(err)
	}
	data := blob.Bytes()

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dst := index.New()
		if err := dst.Restore(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}
