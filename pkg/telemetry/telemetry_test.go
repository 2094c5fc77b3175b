package telemetry_test

import (
	"context"

	"github.com/mudler/LocalArbiter/pkg/telemetry"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Init", func() {
	It("is a no-op without an endpoint", func() {
		shutdown, err := telemetry.Init(context.Background(), "", "localarbiter", "test", true)
		Expect(err).NotTo(HaveOccurred())
		Expect(shutdown(context.Background())).To(Succeed())

		counter, err := telemetry.Meter("test").Int64Counter("noop")
		Expect(err).NotTo(HaveOccurred())
		counter.Add(context.Background(), 1)
	})
})
