package retry_test

import (
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lhamowski/luxnet/retry"
)

var _ = Describe("Policy.Delay", func() {
	DescribeTable("fixed strategy always returns the base delay",
		func(k uint32) {
			p := retry.Policy{Strategy: retry.Fixed, BaseDelay: 100 * time.Millisecond, MaxDelay: 500 * time.Millisecond}
			Expect(p.Delay(k)).To(Equal(100 * time.Millisecond))
		},
		Entry("attempt 0", uint32(0)),
		Entry("attempt 1", uint32(1)),
		Entry("attempt 4", uint32(4)),
	)

	DescribeTable("linear strategy",
		func(k uint32, want time.Duration) {
			p := retry.Policy{Strategy: retry.Linear, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
			Expect(p.Delay(k)).To(Equal(want))
		},
		Entry("attempt 0", uint32(0), 100*time.Millisecond),
		Entry("attempt 3", uint32(3), 300*time.Millisecond),
		Entry("attempt 100 clamps to max", uint32(100), time.Second),
	)

	DescribeTable("exponential strategy",
		func(k uint32, want time.Duration) {
			p := retry.Policy{Strategy: retry.Exponential, BaseDelay: 10 * time.Millisecond, MaxDelay: time.Second}
			Expect(p.Delay(k)).To(Equal(want))
		},
		Entry("attempt 0", uint32(0), 10*time.Millisecond),
		Entry("attempt 3", uint32(3), 80*time.Millisecond),
		Entry("attempt 1000 clamps to max", uint32(1000), time.Second),
	)

	DescribeTable("a zero base delay is always zero regardless of strategy",
		func(s retry.Strategy) {
			p := retry.Policy{Strategy: s, BaseDelay: 0, MaxDelay: time.Second}
			Expect(p.Delay(5)).To(Equal(time.Duration(0)))
		},
		Entry("fixed", retry.Fixed),
		Entry("linear", retry.Linear),
		Entry("exponential", retry.Exponential),
	)
})

var _ = Describe("Executor", func() {
	It("stops after MaxAttempts and fires the exhausted callback exactly once", func() {
		max := uint32(3)
		p := retry.Policy{Strategy: retry.Fixed, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxAttempts: u32(max)}
		e := retry.New(p)

		var fires int32
		var exhausted int32
		done := make(chan struct{})
		// Each fire stands for a failed attempt, so the action re-arms.
		e.SetRetryAction(func() { atomic.AddInt32(&fires, 1); e.Retry() })
		e.SetExhaustedCallback(func() {
			atomic.AddInt32(&exhausted, 1)
			close(done)
		})

		e.Retry()
		Eventually(done, time.Second).Should(BeClosed())

		Expect(atomic.LoadInt32(&fires)).To(Equal(int32(max)))
		Expect(atomic.LoadInt32(&exhausted)).To(Equal(int32(1)))
	})

	It("clears exhaustion and attempts on Reset", func() {
		p := retry.Policy{Strategy: retry.Fixed, BaseDelay: 0, MaxAttempts: u32(1)}
		e := retry.New(p)
		e.Retry()
		Eventually(e.IsExhausted, time.Second).Should(BeTrue())

		e.Reset()
		Expect(e.IsExhausted()).To(BeFalse())
		Expect(e.Attempts()).To(Equal(uint32(0)))
	})

	It("suppresses a pending retry once cancelled", func() {
		p := retry.Policy{Strategy: retry.Fixed, BaseDelay: 20 * time.Millisecond}
		e := retry.New(p)
		var fires int32
		e.SetRetryAction(func() { atomic.AddInt32(&fires, 1) })
		e.Retry()
		e.Cancel()

		Consistently(func() int32 { return atomic.LoadInt32(&fires) }, 60*time.Millisecond).Should(Equal(int32(0)))
	})

	It("never exhausts with no MaxAttempts configured", func() {
		p := retry.Policy{Strategy: retry.Fixed, BaseDelay: 0}
		e := retry.New(p)
		for i := 0; i < 50; i++ {
			e.Retry()
		}
		Expect(e.IsExhausted()).To(BeFalse())
	})
})
