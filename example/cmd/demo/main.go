package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/mickamy/reltrack"
)

type Comment struct {
	Title   string
	changes reltrack.Changes
}

func (c *Comment) Changes() reltrack.Changes { return c.changes }

func (c *Comment) SetTitle(s string) {
	from := c.Title
	if p, ok := c.changes["title"].(reltrack.Pair); ok {
		from, _ = p.Old().(string)
	}
	if c.changes == nil {
		c.changes = reltrack.Changes{}
	}
	if from == s {
		delete(c.changes, "title")
	} else {
		c.changes["title"] = reltrack.Pair{from, s}
	}
	c.Title = s
}

type Post struct {
	ID       int
	Title    string
	Comments []Comment  `reltrack:"embeds_many"`
	TagIDs   []int      `json:"tag_ids"`
	Tags     []struct{} `reltrack:"has_many"`
	AuthorID string
	Author   *struct{} `reltrack:"belongs_to"`
}

func main() {
	cfg, err := reltrack.ConfigFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if getenv("RELTRACK_DEBUG", "") != "" {
		logger, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("logger: %v", err)
		}
		defer func(logger *zap.Logger) {
			_ = logger.Sync()
		}(logger)
		cfg.Logger = logger
	}

	h := reltrack.New(cfg)
	if _, err := h.Register(&Post{}); err != nil {
		log.Fatalf("register: %v", err)
	}

	// As loaded from storage
	post := &Post{
		ID:       1,
		Title:    "hello",
		Comments: []Comment{{Title: "first"}, {Title: "second"}},
		TagIDs:   []int{1, 2},
		AuthorID: "u1",
	}
	tr, err := h.Track(post)
	if err != nil {
		log.Fatalf("track: %v", err)
	}
	if err := tr.AfterLoad(); err != nil {
		log.Fatalf("after load: %v", err)
	}

	post.Comments[1].SetTitle("second (edited)")
	post.TagIDs = append(post.TagIDs, 3)
	post.AuthorID = "u2"

	changed, err := tr.ChangedWithRelations()
	if err != nil {
		log.Fatalf("changed: %v", err)
	}
	changes, err := tr.ChangesWithRelations()
	if err != nil {
		log.Fatalf("changes: %v", err)
	}

	fmt.Printf("snapshot %s changed=%v\n", tr.SnapshotID(), changed)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(changes); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
