package llm

import (
	"context"
	"fmt"
	"strings"
)

// TrackPrompt instructs the model to extract a work title and performer from a
// noisy video title and channel name.
const TrackPrompt = `You extract metadata for Arabic audio recordings (songs, nasheeds, recitations, latmiyat).

Input: two lines, "video_title: ..." and "channel: ...". The video title is raw and noisy.
The channel may be the performer or a generic label/company channel.

Output exactly two lines in Arabic and nothing else:
title: <work title>
artist: <performer>

No JSON, no code fences, no explanation. If unsure, give your best guess in the same two lines.

Rules:
- Drop noise from the title: clip, exclusive, lyrics, remix, live, cover, HQ, 4K, official, years, emoji, bracketed extras, marketing adjectives (فيديو كليب، حصري، كلمات، جديد، أجمل).
- Prefer a performer named in the video title (after "-", "|", "بصوت", "أداء", "الرادود", "القارئ"); otherwise use the channel when it names a person.
- The title is what remains after removing the performer and the noise. Keep it short.`

// InferTrack asks the model for the title and artist behind a video title and
// channel hint. The raw completion text is returned for the caller to parse.
func (c *Client) InferTrack(ctx context.Context, videoTitle, channel string) (string, error) {
	videoTitle = strings.TrimSpace(videoTitle)
	channel = strings.TrimSpace(channel)
	if videoTitle == "" && channel == "" {
		return "", fmt.Errorf("llm infer track: no hints supplied")
	}
	user := fmt.Sprintf("video_title: %s\nchannel: %s", videoTitle, channel)
	return c.Complete(ctx, TrackPrompt, user)
}
