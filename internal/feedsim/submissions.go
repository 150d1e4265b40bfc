package feedsim

import (
	"context"
	"fmt"
	"log"

	"github.com/abakedjoetato/luxqueue/pkg/logger"
)

// openSubmissions toggles the submission gate open so seeding can proceed.
func openSubmissions(ctx context.Context, client *HTTPClient, config *Config) error {
	logger.Get().Info(ctx, "opening submissions")

	status, body, err := client.Post(ctx, config.BaseURL+"/submissions/status", StatusToggleRequest{Open: true})
	if err != nil {
		return fmt.Errorf("toggle submissions open: %w", err)
	}
	if status != StatusOK {
		return fmt.Errorf("toggle submissions open: HTTP %d: %s", status, string(body))
	}
	return nil
}

// seedSubmissions creates the seed submissions, spreading them round-robin
// across the viewer handles so interaction points have somewhere to land.
// The returned map holds the first submitter per handle, which is the pair
// the identity link step will bind.
func seedSubmissions(ctx context.Context, client *HTTPClient, config *Config, handles []string, stats *Stats) (map[string]string, error) {
	log.Printf("🎵 Seeding %d submissions across %d handles...", config.NumSubmitters, len(handles))

	url := config.BaseURL + "/submissions"
	links := make(map[string]string, len(handles))

	for i := 0; i < config.NumSubmitters; i++ {
		handle := handles[i%len(handles)]
		submitterID := "fan_" + shortID()
		pair := artistSongPairs[randomInt(len(artistSongPairs))]

		req := CreateSubmissionRequest{
			SubmitterID:      submitterID,
			SubmitterName:    submitterNames[randomInt(len(submitterNames))],
			Artist:           pair[0],
			Song:             pair[1],
			EngagementHandle: handle,
		}

		status, body, err := client.Post(ctx, url, req)
		if err != nil {
			return nil, fmt.Errorf("create submission %d: %w", i, err)
		}
		if status != StatusCreated {
			return nil, fmt.Errorf("create submission %d: HTTP %d: %s", i, status, string(body))
		}

		var sub SubmissionResponse
		if err := unmarshalJSON(body, &sub); err != nil {
			return nil, fmt.Errorf("parse submission %d: %w", i, err)
		}
		if _, ok := links[handle]; !ok {
			links[handle] = submitterID
		}

		if config.Verbose {
			log.Printf("   created %s: %q by %s for %s", sub.PublicID, req.Song, req.Artist, handle)
		}
	}

	stats.SubmissionsCreated = config.NumSubmitters
	log.Printf("✅ Seeded %d submissions", config.NumSubmitters)
	return links, nil
}

// linkIdentities binds each handle to its first submitter so gift rewards
// can move that submitter's entry. Conflicts are tolerated; they mean the
// pair is already linked from a previous run against the same database.
func linkIdentities(ctx context.Context, client *HTTPClient, config *Config, links map[string]string, stats *Stats) error {
	log.Printf("🔗 Linking %d viewer handles to submitters...", len(links))

	url := config.BaseURL + "/identities/link"
	linked := 0

	for handle, submitterID := range links {
		status, body, err := client.Post(ctx, url, LinkRequest{SubmitterID: submitterID, Handle: handle})
		switch {
		case status == StatusConflict:
			linked++
		case err != nil:
			return fmt.Errorf("link handle %q: %w", handle, err)
		case status != StatusOK:
			return fmt.Errorf("link handle %q: HTTP %d: %s", handle, status, string(body))
		default:
			linked++
		}
	}

	stats.IdentitiesLinked = linked
	log.Printf("✅ Linked %d identities", linked)
	return nil
}
