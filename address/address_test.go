package address_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lhamowski/luxnet/address"
)

var _ = Describe("Address", func() {
	It("round-trips through Uint32", func() {
		r := rand.New(rand.NewSource(1))
		for i := 0; i < 1000; i++ {
			u := r.Uint32()
			a := address.FromUint32(u)
			Expect(a.Uint32()).To(Equal(u))
		}
	})

	It("round-trips through Bytes", func() {
		b := [4]byte{10, 20, 30, 40}
		a := address.FromBytes(b)
		Expect(a.Bytes()).To(Equal(b))
	})

	It("round-trips through String/Parse", func() {
		a := address.Address{192, 168, 1, 42}
		parsed, err := address.Parse(a.String())
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed).To(Equal(a))
	})

	DescribeTable("dotted-quad formatting",
		func(a address.Address, want string) {
			Expect(a.String()).To(Equal(want))
		},
		Entry("localhost", address.Localhost, "127.0.0.1"),
		Entry("any", address.Any, "0.0.0.0"),
		Entry("broadcast", address.Broadcast, "255.255.255.255"),
	)
})

var _ = Describe("Endpoint", func() {
	It("orders by address before port", func() {
		lo := address.Endpoint{Address: address.Address{1, 1, 1, 1}, Port: 80}
		hi := address.Endpoint{Address: address.Address{1, 1, 1, 2}, Port: 1}
		Expect(lo.Less(hi)).To(BeTrue())
	})

	It("falls back to port when addresses match", func() {
		lo := address.Endpoint{Address: address.Address{1, 1, 1, 1}, Port: 80}
		samePort := address.Endpoint{Address: lo.Address, Port: 443}
		Expect(lo.Less(samePort)).To(BeTrue())
	})

	It("parses host:port", func() {
		ep, err := address.ParseEndpoint("127.0.0.1:8080")
		Expect(err).NotTo(HaveOccurred())
		Expect(ep.Address).To(Equal(address.Localhost))
		Expect(ep.Port).To(Equal(uint16(8080)))
	})
})

var _ = Describe("HostnameEndpoint", func() {
	It("parses hostname:port", func() {
		he, err := address.ParseHostnameEndpoint("example.com:443")
		Expect(err).NotTo(HaveOccurred())
		Expect(he.Host).To(Equal("example.com"))
		Expect(he.Port).To(Equal(uint16(443)))
	})
})
