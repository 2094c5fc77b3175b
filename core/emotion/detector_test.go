package emotion_test

import (
	"github.com/mudler/LocalArbiter/core/emotion"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Detector", func() {
	var detector *emotion.Detector

	BeforeEach(func() {
		detector = emotion.NewDetector()
	})

	It("returns an empty context for empty text", func() {
		ctx := detector.DetectEmotions("")
		Expect(ctx.PrimaryEmotion).To(BeEmpty())
		Expect(ctx.OverallIntensity).To(BeZero())
		Expect(ctx.DetectedEmotions).To(BeEmpty())
		Expect(ctx.SentimentPolarity).To(BeZero())
	})

	It("detects a single emotion at base intensity", func() {
		ctx := detector.DetectEmotions("I am sad today")
		Expect(ctx.PrimaryEmotion).To(Equal(emotion.Sad))
		Expect(ctx.OverallIntensity).To(BeNumerically("~", 0.5, 1e-9))
		Expect(ctx.IsMixed).To(BeFalse())
		Expect(ctx.SentimentPolarity).To(BeNumerically("~", -1, 1e-9))
		Expect(ctx.DetectedEmotions[0].Keywords).To(Equal([]string{"sad"}))
		Expect(ctx.DetectedEmotions[0].Position).To(Equal(2))
	})

	It("applies intensity modifiers in the window", func() {
		Expect(detector.DetectEmotions("I am very happy").DetectedEmotions[0].Intensity).To(BeNumerically("~", 0.75, 1e-9))
		Expect(detector.DetectEmotions("I am slightly worried").DetectedEmotions[0].Intensity).To(BeNumerically("~", 0.2, 1e-9))
	})

	It("ignores modifiers outside the window", func() {
		ctx := detector.DetectEmotions("very much so far away I feel happy")
		Expect(ctx.DetectedEmotions[0].Intensity).To(BeNumerically("~", 0.5, 1e-9))
	})

	It("drops negated emotions", func() {
		ctx := detector.DetectEmotions("I am not sad")
		Expect(ctx.PrimaryEmotion).To(BeEmpty())
	})

	It("only negates negative emotions", func() {
		ctx := detector.DetectEmotions("I am not happy")
		Expect(ctx.PrimaryEmotion).To(Equal("happy"))
		Expect(ctx.DetectedEmotions[0].Intensity).To(BeNumerically("~", 0.5, 1e-9))

		ctx = detector.DetectEmotions("not so sad")
		Expect(ctx.PrimaryEmotion).To(BeEmpty())
	})

	It("boosts repeated keywords", func() {
		ctx := detector.DetectEmotions("sad sad sad")
		Expect(ctx.DetectedEmotions[0].Intensity).To(BeNumerically("~", 0.6, 1e-9))
	})

	It("clamps the intensity", func() {
		ctx := detector.DetectEmotions("extremely extremely angry")
		Expect(ctx.DetectedEmotions[0].Intensity).To(BeNumerically("~", 1.5, 1e-9))
	})

	It("sorts emotions and computes mixed polarity", func() {
		ctx := detector.DetectEmotions("I am very happy but a little worried")
		Expect(ctx.PrimaryEmotion).To(Equal(emotion.Happy))
		Expect(ctx.IsMixed).To(BeTrue())
		Expect(ctx.DetectedEmotions).To(HaveLen(2))
		Expect(ctx.OverallIntensity).To(BeNumerically("~", (0.75+0.25)/2, 1e-9))
		Expect(ctx.SentimentPolarity).To(BeNumerically("~", (0.75-0.25)/(0.75+0.25), 1e-9))
	})

	It("understands french keywords", func() {
		ctx := detector.DetectEmotions("Je suis très triste")
		Expect(ctx.PrimaryEmotion).To(Equal(emotion.Sad))
		Expect(ctx.DetectedEmotions[0].Intensity).To(BeNumerically("~", 0.75, 1e-9))
	})
})
