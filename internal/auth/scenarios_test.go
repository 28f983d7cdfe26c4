// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"golang.org/x/crypto/bcrypt"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/authapi"
	"github.com/holomush/holoauth/internal/credsvc"
	"github.com/holomush/holoauth/internal/session"
)

var _ = Describe("Session lifecycle against a credential service", func() {
	var (
		ctx       context.Context
		svc       *credsvc.Service
		srv       *httptest.Server
		storePath string
		store     *session.FileStore
		ctrl      *auth.Controller
		alice     authapi.Credentials
	)

	newCtrl := func() *auth.Controller {
		client, err := authapi.NewClient(authapi.ClientConfig{BaseURL: srv.URL})
		Expect(err).NotTo(HaveOccurred())
		c, err := auth.NewController(client, store)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Restore(ctx)).To(Succeed())
		return c
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		svc, err = credsvc.New(credsvc.Config{BcryptCost: bcrypt.MinCost})
		Expect(err).NotTo(HaveOccurred())
		srv = httptest.NewServer(svc.Handler())
		DeferCleanup(srv.Close)

		storePath = filepath.Join(GinkgoT().TempDir(), "session.json")
		store, err = session.NewFileStore(storePath, session.DefaultKey)
		Expect(err).NotTo(HaveOccurred())

		alice = authapi.Credentials{Email: "a@b.com", Password: "pw"}
		ctrl = newCtrl()
	})

	persisted := func() (string, bool) {
		token, ok, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		return token, ok
	}

	Describe("registering", func() {
		It("succeeds once and reports duplicates as already registered", func() {
			Expect(ctrl.Register(ctx, alice).OK()).To(BeTrue())

			out := ctrl.Register(ctx, alice)
			Expect(out.Reason).To(Equal(auth.ReasonAlreadyRegistered))
			Expect(out.Message()).To(Equal("This email has already been registered."))
			Expect(ctrl.State()).To(Equal(auth.LoggedOut))
		})

		It("reports a malformed email as unknown", func() {
			out := ctrl.Register(ctx, authapi.Credentials{Email: "nope", Password: "pw"})
			Expect(out.Reason).To(Equal(auth.ReasonUnknown))
		})
	})

	Describe("logging in", func() {
		BeforeEach(func() {
			Expect(ctrl.Register(ctx, alice).OK()).To(BeTrue())
		})

		It("persists the token and survives a restart", func() {
			out := ctrl.Login(ctx, alice)
			Expect(out.OK()).To(BeTrue())

			token, ok := persisted()
			Expect(ok).To(BeTrue())
			held, _ := ctrl.Token()
			Expect(held).To(Equal(token))

			restarted := newCtrl()
			Expect(restarted.State()).To(Equal(auth.LoggedIn))
			Expect(restarted.Profile()).To(BeNil())
			Expect(restarted.FetchProfile(ctx).OK()).To(BeTrue())
			Expect(restarted.Profile().Email()).To(Equal("a@b.com"))
		})

		It("leaves an existing session alone on bad credentials", func() {
			Expect(ctrl.Login(ctx, alice).OK()).To(BeTrue())
			before, _ := persisted()

			out := ctrl.Login(ctx, authapi.Credentials{Email: "a@b.com", Password: "wrong"})
			Expect(out.Reason).To(Equal(auth.ReasonUnknown))

			after, ok := persisted()
			Expect(ok).To(BeTrue())
			Expect(after).To(Equal(before))
			Expect(ctrl.State()).To(Equal(auth.LoggedIn))
		})
	})

	Describe("fetching the profile", func() {
		It("returns the profile for a valid token", func() {
			Expect(ctrl.Register(ctx, alice).OK()).To(BeTrue())
			Expect(ctrl.Login(ctx, alice).OK()).To(BeTrue())

			Expect(ctrl.FetchProfile(ctx).OK()).To(BeTrue())
			Expect(ctrl.Profile().ID()).To(Equal("1"))
			Expect(ctrl.Profile().Email()).To(Equal("a@b.com"))
		})

		It("keeps a rejected token", func() {
			Expect(store.Save(ctx, "abc123")).To(Succeed())
			ctrl = newCtrl()

			out := ctrl.FetchProfile(ctx)
			Expect(out.Reason).To(Equal(auth.ReasonUnauthorized))
			Expect(out.Message()).To(Equal("Token invalid or expired"))

			token, ok := persisted()
			Expect(ok).To(BeTrue())
			Expect(token).To(Equal("abc123"))
			Expect(ctrl.State()).To(Equal(auth.LoggedIn))
		})

		It("is unauthorized without a session", func() {
			Expect(ctrl.FetchProfile(ctx).Reason).To(Equal(auth.ReasonUnauthorized))
		})
	})

	Describe("logging out", func() {
		It("clears the token and profile and is idempotent", func() {
			Expect(ctrl.Register(ctx, alice).OK()).To(BeTrue())
			Expect(ctrl.Login(ctx, alice).OK()).To(BeTrue())
			Expect(ctrl.FetchProfile(ctx).OK()).To(BeTrue())

			Expect(ctrl.Logout(ctx).OK()).To(BeTrue())
			Expect(ctrl.Logout(ctx).OK()).To(BeTrue())

			_, ok := persisted()
			Expect(ok).To(BeFalse())
			Expect(ctrl.Profile()).To(BeNil())
			Expect(newCtrl().State()).To(Equal(auth.LoggedOut))
		})
	})

	Describe("reading the token without verification", func() {
		It("exposes the subject and expiry of an issued token", func() {
			Expect(ctrl.Register(ctx, alice).OK()).To(BeTrue())
			Expect(svc.SetRole(alice.Email, "intern")).To(Succeed())
			Expect(ctrl.Login(ctx, alice).OK()).To(BeTrue())

			token, _ := ctrl.Token()
			info := auth.InspectToken(token)
			Expect(info.JWT).To(BeTrue())
			Expect(info.Subject).To(Equal("a@b.com"))
			Expect(info.Role).To(Equal("intern"))
			Expect(info.ExpiresAt).NotTo(BeNil())
		})
	})
})
