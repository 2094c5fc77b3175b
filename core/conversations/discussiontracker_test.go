package conversations_test

import (
	"time"

	"github.com/mudler/LocalArbiter/core/conversations"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
)

var _ = Describe("DiscussionTracker", func() {
	var tracker *conversations.DiscussionTracker[string]

	BeforeEach(func() {
		tracker = conversations.NewDiscussionTracker[string](time.Minute, 3)
	})

	It("counts agent messages since the last user message", func() {
		Expect(tracker.DiscussionTurn("room")).To(BeZero())
		tracker.AddUserMessage("room", "hi")
		Expect(tracker.AddAgentMessage("room", "lisa", "hello")).To(Equal(1))
		Expect(tracker.AddAgentMessage("room", "marie", "hey lisa")).To(Equal(2))
		Expect(tracker.DiscussionTurn("room")).To(Equal(2))

		tracker.AddUserMessage("room", "stop it")
		Expect(tracker.DiscussionTurn("room")).To(BeZero())
	})

	It("keeps conversations apart", func() {
		tracker.AddAgentMessage("a", "lisa", "x")
		Expect(tracker.DiscussionTurn("b")).To(BeZero())
	})

	It("keeps a bounded history", func() {
		tracker.AddUserMessage("room", "1")
		tracker.AddAgentMessage("room", "lisa", "2")
		tracker.AddAgentMessage("room", "lisa", "3")
		tracker.AddAgentMessage("room", "marie", "4")

		conv := tracker.GetConversation("room")
		Expect(conv).To(HaveLen(3))
		Expect(conv[0].Content).To(Equal("2"))
		Expect(conv[2].Name).To(Equal("marie"))
		Expect(conv[2].Role).To(Equal(openai.ChatMessageRoleAssistant))
	})

	It("forgets idle conversations", func() {
		tracker = conversations.NewDiscussionTracker[string](10*time.Millisecond, 0)
		tracker.AddAgentMessage("room", "lisa", "x")
		Eventually(func() int { return tracker.DiscussionTurn("room") }).Should(BeZero())
		Expect(tracker.GetConversation("room")).To(BeEmpty())
	})

	It("resets on demand", func() {
		tracker.AddAgentMessage("room", "lisa", "x")
		tracker.Reset("room")
		Expect(tracker.GetConversation("room")).To(BeEmpty())
	})
})
