package state_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/mudler/LocalArbiter/core/arbiter"
	"github.com/mudler/LocalArbiter/core/state"
	"github.com/mudler/LocalArbiter/core/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const yamlAgents = `
agents:
  - agent_id: lisa
    name: Lisa
    domains: [health]
    empathy_level: 0.9
  - agent_id: tech
    name: Tech
    is_active: false
    priority_weight: 2
`

const jsonAgents = `[{"agent_id": "chef", "name": "Chef", "domains": ["cooking"]}]`

func write(dir, name, content string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
	return path
}

func ids(profiles []types.AgentProfile) []string {
	out := []string{}
	for _, p := range profiles {
		out = append(out, p.ID)
	}
	return out
}

var _ = Describe("LoadProfiles", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("reads YAML with defaults", func() {
		profiles, err := state.LoadProfiles(write(dir, "agents.yaml", yamlAgents))
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(profiles)).To(Equal([]string{"lisa", "tech"}))

		Expect(profiles[0].EmpathyLevel).To(Equal(0.9))
		Expect(profiles[0].Active).To(BeTrue())
		Expect(profiles[0].PriorityWeight).To(Equal(1.0))
		Expect(profiles[1].Active).To(BeFalse())
		Expect(profiles[1].PriorityWeight).To(Equal(2.0))
		Expect(profiles[1].EmpathyLevel).To(Equal(0.5))
	})

	It("reads a bare JSON list", func() {
		profiles, err := state.LoadProfiles(write(dir, "agents.json", jsonAgents))
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(profiles)).To(Equal([]string{"chef"}))
		Expect(profiles[0].Domains).To(Equal([]string{"cooking"}))
	})

	It("reads a JSON document", func() {
		profiles, err := state.LoadProfiles(write(dir, "agents.json", `{"agents": `+jsonAgents+`}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(profiles).To(HaveLen(1))
	})

	It("rejects unknown formats", func() {
		_, err := state.LoadProfiles(write(dir, "agents.toml", ""))
		Expect(err).To(MatchError(state.ErrUnsupportedFormat))
	})

	It("rejects duplicate and missing ids", func() {
		_, err := state.LoadProfiles(write(dir, "dup.json", `[{"agent_id":"a"},{"agent_id":"a"}]`))
		Expect(err).To(HaveOccurred())
		_, err = state.LoadProfiles(write(dir, "none.json", `[{"name":"a"}]`))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Loader", func() {
	var (
		dir  string
		path string
		arb  *arbiter.SocialArbiter
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		path = write(dir, "agents.yaml", yamlAgents)
		arb = arbiter.New()
	})

	It("registers the agents of the file", func() {
		Expect(state.NewLoader(path).Apply(arb)).To(Succeed())
		Expect(ids(arb.Registry().List())).To(Equal([]string{"lisa", "tech"}))
	})

	It("only unregisters agents it loaded", func() {
		Expect(arb.RegisterAgent(types.NewAgentProfile("manual", "Manual"))).To(Succeed())
		l := state.NewLoader(path)
		Expect(l.Apply(arb)).To(Succeed())

		write(dir, "agents.yaml", "agents:\n  - agent_id: lisa\n")
		Expect(l.Apply(arb)).To(Succeed())
		Expect(ids(arb.Registry().List())).To(Equal([]string{"lisa", "manual"}))
	})

	It("reloads on change while watching", func() {
		l := state.NewLoader(path)
		Expect(l.Apply(arb)).To(Succeed())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan error)
		go func() { done <- l.Watch(ctx, arb, 20*time.Millisecond) }()

		// give the watcher time to register the directory
		time.Sleep(100 * time.Millisecond)
		write(dir, "agents.yaml", "agents:\n  - agent_id: chef\n")

		Eventually(func() []string { return ids(arb.Registry().List()) }, 2*time.Second).Should(Equal([]string{"chef"}))
		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})

	It("follows files replaced by a rename and ignores their neighbours", func() {
		l := state.NewLoader(path)
		Expect(l.Apply(arb)).To(Succeed())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = l.Watch(ctx, arb, 20*time.Millisecond) }()
		time.Sleep(100 * time.Millisecond)

		write(dir, "other.yaml", "agents:\n  - agent_id: nobody\n")
		Consistently(func() []string { return ids(arb.Registry().List()) }, 200*time.Millisecond).Should(Equal([]string{"lisa", "tech"}))

		tmp := write(dir, "agents.yaml.tmp", "agents:\n  - agent_id: tech\n")
		Expect(os.Rename(tmp, path)).To(Succeed())
		Eventually(func() []string { return ids(arb.Registry().List()) }, 2*time.Second).Should(Equal([]string{"tech"}))
	})

	It("fails when the directory cannot be watched", func() {
		l := state.NewLoader(filepath.Join(dir, "missing", "agents.yaml"))
		Expect(l.Watch(context.Background(), arb, 0)).To(HaveOccurred())
	})
})
