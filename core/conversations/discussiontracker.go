package conversations

import (
	"fmt"
	"sync"
	"time"

	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"
)

type TrackerKey interface{ ~int | ~int64 | ~string }

// DiscussionTracker follows the conversations the arbiter decides on. It
// counts the agent messages exchanged since the last user message, which
// is the discussion turn fed to the arbiter, and keeps a short history.
// Conversations idle for longer than lastMessageDuration start over.
type DiscussionTracker[K TrackerKey] struct {
	convMutex           sync.Mutex
	currentconversation map[K][]openai.ChatCompletionMessage
	discussionTurn      map[K]int
	lastMessageTime     map[K]time.Time
	lastMessageDuration time.Duration
	maxHistory          int
	now                 func() time.Time
}

func NewDiscussionTracker[K TrackerKey](lastMessageDuration time.Duration, maxHistory int) *DiscussionTracker[K] {
	return &DiscussionTracker[K]{
		lastMessageDuration: lastMessageDuration,
		maxHistory:          maxHistory,
		currentconversation: map[K][]openai.ChatCompletionMessage{},
		discussionTurn:      map[K]int{},
		lastMessageTime:     map[K]time.Time{},
		now:                 time.Now,
	}
}

// AddUserMessage records a user message and resets the discussion turn.
func (c *DiscussionTracker[K]) AddUserMessage(key K, content string) {
	c.add(key, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: content}, true)
}

// AddAgentMessage records what agentID said and advances the discussion
// turn.
func (c *DiscussionTracker[K]) AddAgentMessage(key K, agentID, content string) int {
	return c.add(key, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Name:    agentID,
		Content: content,
	}, false)
}

// DiscussionTurn returns how many agent messages followed the last user
// message.
func (c *DiscussionTracker[K]) DiscussionTurn(key K) int {
	c.convMutex.Lock()
	defer c.convMutex.Unlock()
	if c.expiredLocked(key) {
		return 0
	}
	return c.discussionTurn[key]
}

func (c *DiscussionTracker[K]) GetConversation(key K) []openai.ChatCompletionMessage {
	c.convMutex.Lock()
	defer c.convMutex.Unlock()

	currentConv := []openai.ChatCompletionMessage{}
	if c.expiredLocked(key) {
		xlog.Debug("Conversation history does not exist for", "key", fmt.Sprintf("%v", key))
	} else {
		currentConv = append(currentConv, c.currentconversation[key]...)
	}
	c.cleanupLocked()
	return currentConv
}

// Reset forgets the conversation.
func (c *DiscussionTracker[K]) Reset(key K) {
	c.convMutex.Lock()
	defer c.convMutex.Unlock()
	c.deleteLocked(key)
}

func (c *DiscussionTracker[K]) add(key K, message openai.ChatCompletionMessage, fromUser bool) int {
	c.convMutex.Lock()
	defer c.convMutex.Unlock()

	if c.expiredLocked(key) {
		c.deleteLocked(key)
	}

	conv := append(c.currentconversation[key], message)
	if c.maxHistory > 0 && len(conv) > c.maxHistory {
		conv = conv[len(conv)-c.maxHistory:]
	}
	c.currentconversation[key] = conv
	c.lastMessageTime[key] = c.now()

	if fromUser {
		c.discussionTurn[key] = 0
	} else {
		c.discussionTurn[key]++
	}
	return c.discussionTurn[key]
}

func (c *DiscussionTracker[K]) expiredLocked(key K) bool {
	last, exists := c.lastMessageTime[key]
	if !exists {
		return true
	}
	return last.Add(c.lastMessageDuration).Before(c.now())
}

func (c *DiscussionTracker[K]) cleanupLocked() {
	for k := range c.currentconversation {
		if c.expiredLocked(k) {
			xlog.Debug("Cleaning up conversation for", "key", fmt.Sprintf("%v", k))
			c.deleteLocked(k)
		}
	}
}

func (c *DiscussionTracker[K]) deleteLocked(key K) {
	delete(c.currentconversation, key)
	delete(c.discussionTurn, key)
	delete(c.lastMessageTime, key)
}
