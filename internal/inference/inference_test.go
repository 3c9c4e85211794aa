package inference

import (
	"context"
	"errors"
	"testing"
	"time"

	"tuneshelf/internal/services"
	"tuneshelf/internal/tags"
)

func TestParseHints(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     Hints
		wantErr  bool
	}{
		{name: "separator", filename: "/in/يا طيبة ###  قناة الهدى .mp3", want: Hints{VideoTitle: "يا طيبة", Channel: "قناة الهدى"}},
		{name: "extra separator kept in channel", filename: "a###b###c.m4a", want: Hints{VideoTitle: "a", Channel: "b###c"}},
		{name: "missing separator", filename: "Just A Song.flac", want: Hints{VideoTitle: "Just A Song"}, wantErr: true},
		{name: "empty channel", filename: "Song###.mp3", want: Hints{VideoTitle: "Song"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHints(tt.filename)
			if got != tt.want {
				t.Fatalf("hints = %+v, want %+v", got, tt.want)
			}
			if tt.wantErr {
				if !errors.Is(err, services.ErrParse) {
					t.Fatalf("expected parse error, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantTitle  string
		wantArtist string
		wantErr    bool
	}{
		{name: "lines", text: "title: يا طيبة\nartist: محمد", wantTitle: "يا طيبة", wantArtist: "محمد"},
		{name: "lines mixed case", text: "  Title :  A \n ARTIST: B  ", wantTitle: "A", wantArtist: "B"},
		{name: "json", text: `{"title":"A","artist":"B"}`, wantTitle: "A", wantArtist: "B"},
		{name: "fenced json", text: "```json\n{\"title\": \"A\", \"artist\": \"B\"}\n```", wantTitle: "A", wantArtist: "B"},
		{name: "json with prose", text: "Result: {\"title\":\"A\",\"artist\":\"B\"}.", wantTitle: "A", wantArtist: "B"},
		{name: "partial", text: "title: A", wantTitle: "A", wantErr: true},
		{name: "garbage", text: "I cannot help with that", wantErr: true},
		{name: "empty", text: "", wantErr: true},
		{name: "non-string json", text: `{"title":5,"artist":"B"}`, wantArtist: "B", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseResponse(tt.text)
			if got.Title != tt.wantTitle || got.Artist != tt.wantArtist {
				t.Fatalf("got (%q, %q), want (%q, %q)", got.Title, got.Artist, tt.wantTitle, tt.wantArtist)
			}
			if got.Raw != tt.text {
				t.Fatalf("raw text not preserved: %q", got.Raw)
			}
			if tt.wantErr != (got.Err != nil) {
				t.Fatalf("err = %v, wantErr %v", got.Err, tt.wantErr)
			}
			if got.Err != nil && !errors.Is(got.Err, services.ErrInference) {
				t.Fatalf("expected inference error, got %v", got.Err)
			}
		})
	}
}

type stubService struct {
	raw   string
	err   error
	calls int
	wait  bool
}

func (s *stubService) InferTrack(ctx context.Context, _, _ string) (string, error) {
	s.calls++
	if s.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.raw, s.err
}

func TestResolverEmbeddedSkipsService(t *testing.T) {
	svc := &stubService{raw: "title: X\nartist: Y"}
	resolver := NewDefaultResolver(svc, time.Second, nil)

	result := resolver.Resolve(context.Background(), Hints{VideoTitle: "v", Channel: "c"},
		&tags.Metadata{Title: " T ", Artist: "A"})
	if result.Title != "T" || result.Artist != "A" || result.NeedsManual {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Source != "embedded" {
		t.Fatalf("source = %q", result.Source)
	}
	if svc.calls != 0 {
		t.Fatalf("service called %d times", svc.calls)
	}
}

func TestResolverServiceBackfillsFromEmbedded(t *testing.T) {
	svc := &stubService{raw: "title: From Service"}
	resolver := NewDefaultResolver(svc, time.Second, nil)

	result := resolver.Resolve(context.Background(), Hints{VideoTitle: "v", Channel: "c"},
		&tags.Metadata{Artist: "Embedded Artist"})
	if result.Title != "From Service" || result.Artist != "Embedded Artist" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.NeedsManual || result.Error != nil {
		t.Fatalf("expected confident result, got %+v", result)
	}
	if result.RawTrace != "title: From Service" {
		t.Fatalf("raw trace = %q", result.RawTrace)
	}
}

func TestResolverPartialNeedsManual(t *testing.T) {
	svc := &stubService{raw: "artist: Only Artist"}
	resolver := NewDefaultResolver(svc, time.Second, nil)

	result := resolver.Resolve(context.Background(), Hints{VideoTitle: "v", Channel: "c"}, nil)
	if !result.NeedsManual || result.Artist != "Only Artist" || result.Title != "" {
		t.Fatalf("unexpected result %+v", result)
	}
	if !errors.Is(result.Error, services.ErrInference) {
		t.Fatalf("expected inference error, got %v", result.Error)
	}
}

func TestResolverServiceUnavailable(t *testing.T) {
	svc := &stubService{err: errors.New("connection refused")}
	resolver := NewDefaultResolver(svc, time.Second, nil)

	result := resolver.Resolve(context.Background(), Hints{VideoTitle: "Song", Channel: "Channel"}, nil)
	if !result.NeedsManual || result.Title != "" || result.Artist != "" {
		t.Fatalf("unexpected result %+v", result)
	}
	if !errors.Is(result.Error, services.ErrInference) {
		t.Fatalf("expected inference error, got %v", result.Error)
	}
}

func TestResolverServiceTimeout(t *testing.T) {
	svc := &stubService{wait: true}
	resolver := NewDefaultResolver(svc, 20*time.Millisecond, nil)

	result := resolver.Resolve(context.Background(), Hints{VideoTitle: "Song", Channel: "Channel"}, nil)
	if !result.NeedsManual {
		t.Fatalf("expected needs manual, got %+v", result)
	}
	if !errors.Is(result.Error, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", result.Error)
	}
}

func TestResolverNilService(t *testing.T) {
	resolver := NewDefaultResolver(nil, time.Second, nil)
	result := resolver.Resolve(context.Background(), Hints{VideoTitle: "Song"}, nil)
	if !result.NeedsManual || result.Error == nil {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestResolverKeepsEmbeddedFieldWhenServiceFails(t *testing.T) {
	svc := &stubService{err: errors.New("connection refused")}
	resolver := NewDefaultResolver(svc, time.Second, nil)

	result := resolver.Resolve(context.Background(), Hints{VideoTitle: "v", Channel: "c"},
		&tags.Metadata{Title: "Embedded Title"})
	if result.Title != "Embedded Title" || result.Artist != "" || !result.NeedsManual {
		t.Fatalf("unexpected result %+v", result)
	}
	if !errors.Is(result.Error, services.ErrInference) {
		t.Fatalf("expected service error to be recorded, got %v", result.Error)
	}
	if svc.calls != 1 {
		t.Fatalf("service called %d times", svc.calls)
	}

	noHints := resolver.Resolve(context.Background(), Hints{}, &tags.Metadata{Artist: "Embedded Artist"})
	if noHints.Artist != "Embedded Artist" || noHints.Title != "" || !noHints.NeedsManual {
		t.Fatalf("unexpected result without hints %+v", noHints)
	}
}
