package engagement

import "sync"

// CommentCountChanged is published whenever a post's comment count moves.
type CommentCountChanged struct {
	PostID int64
	Count  int64
}

// CommentCounts owns the displayed comment count per post.
type CommentCounts struct {
	mu     sync.Mutex
	counts map[int64]int64
	bus    *Bus[CommentCountChanged]
}

func NewCommentCounts() *CommentCounts {
	return &CommentCounts{
		counts: make(map[int64]int64),
		bus:    NewBus[CommentCountChanged](),
	}
}

func (c *CommentCounts) Get(postID int64) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.counts[postID]
	return n, ok
}

// Set stores the server's count. Subscribers hear about it only when it changed.
func (c *CommentCounts) Set(postID, count int64) {
	if count < 0 {
		count = 0
	}
	c.mu.Lock()
	prev, ok := c.counts[postID]
	c.counts[postID] = count
	c.mu.Unlock()

	if !ok || prev != count {
		c.bus.Publish(CommentCountChanged{PostID: postID, Count: count})
	}
}

// Added records a comment created by this client.
func (c *CommentCounts) Added(postID int64) { c.adjust(postID, 1) }

// Removed records n deleted comments; a reply thread goes with its parent.
func (c *CommentCounts) Removed(postID, n int64) { c.adjust(postID, -n) }

func (c *CommentCounts) adjust(postID, delta int64) {
	c.mu.Lock()
	n := c.counts[postID] + delta
	if n < 0 {
		n = 0
	}
	c.counts[postID] = n
	c.mu.Unlock()

	c.bus.Publish(CommentCountChanged{PostID: postID, Count: n})
}

// Subscribe listens to every post.
func (c *CommentCounts) Subscribe(fn func(CommentCountChanged)) func() {
	return c.bus.Subscribe(fn)
}

// SubscribePost listens to a single post.
func (c *CommentCounts) SubscribePost(postID int64, fn func(CommentCountChanged)) func() {
	return c.bus.Subscribe(func(ev CommentCountChanged) {
		if ev.PostID == postID {
			fn(ev)
		}
	})
}
