//go:build integration

package integration

import (
	"crypto/rand"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eliteGoblin/bastion/internal/domain"
	"github.com/eliteGoblin/bastion/internal/infra"
)

var _ = Describe("Encrypted Store", func() {
	var (
		tmpDir string
		key    []byte
		store  *infra.SQLStore
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bastion-integration-*")
		Expect(err).NotTo(HaveOccurred())

		key = make([]byte, 32)
		_, err = rand.Read(key)
		Expect(err).NotTo(HaveOccurred())

		store, err = infra.NewSQLStore(tmpDir, key)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
		os.RemoveAll(tmpDir)
	})

	Describe("Encryption", func() {
		Context("when reopened with the same key", func() {
			It("should return the persisted data", func() {
				_, err := store.AddBlockedSite("twitter.com", "social")
				Expect(err).NotTo(HaveOccurred())
				Expect(store.Close()).To(Succeed())

				reopened, err := infra.NewSQLStore(tmpDir, key)
				Expect(err).NotTo(HaveOccurred())
				defer reopened.Close()

				sites, err := reopened.ListBlockedSites()
				Expect(err).NotTo(HaveOccurred())
				Expect(sites).To(HaveLen(1))
				Expect(sites[0].Domain).To(Equal("twitter.com"))
				store = nil
			})
		})

		Context("when reopened with a different key", func() {
			It("should refuse to open", func() {
				Expect(store.SetSetting("onboarded", "true")).To(Succeed())
				Expect(store.Close()).To(Succeed())
				store = nil

				wrongKey := make([]byte, 32)
				_, err := rand.Read(wrongKey)
				Expect(err).NotTo(HaveOccurred())

				_, err = infra.NewSQLStore(tmpDir, wrongKey)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Blocklists", func() {
		It("should round-trip sites through add, toggle, and delete", func() {
			id, err := store.AddBlockedSite("reddit.com", "social")
			Expect(err).NotTo(HaveOccurred())

			Expect(store.ToggleBlockedSite(id, false)).To(Succeed())
			sites, err := store.ListBlockedSites()
			Expect(err).NotTo(HaveOccurred())
			Expect(sites[0].Enabled).To(BeFalse())

			Expect(store.DeleteBlockedSite(id)).To(Succeed())
			sites, err = store.ListBlockedSites()
			Expect(err).NotTo(HaveOccurred())
			Expect(sites).To(BeEmpty())
		})

		It("should reject duplicate domains", func() {
			_, err := store.AddBlockedSite("twitter.com", "social")
			Expect(err).NotTo(HaveOccurred())

			_, err = store.AddBlockedSite("twitter.com", "other")
			Expect(err).To(HaveOccurred())
		})

		It("should round-trip schedule rules with day lists", func() {
			id, err := store.AddSchedule(domain.ScheduleRule{
				Name: "mornings", StartTime: "09:00", EndTime: "12:00",
				Days: []string{"Mon", "Wed", "Fri"}, Hardcore: true, Enabled: true,
			})
			Expect(err).NotTo(HaveOccurred())

			rules, err := store.ListSchedules()
			Expect(err).NotTo(HaveOccurred())
			Expect(rules).To(HaveLen(1))
			Expect(rules[0].ID).To(Equal(id))
			Expect(rules[0].Days).To(Equal([]string{"Mon", "Wed", "Fri"}))
			Expect(rules[0].Hardcore).To(BeTrue())
		})
	})

	Describe("Events and stats", func() {
		It("should count block events into daily stats", func() {
			Expect(store.LogBlockEvent("twitter.com", domain.TargetWebsite)).To(Succeed())
			Expect(store.LogBlockEvent("steam.exe", domain.TargetApp)).To(Succeed())
			Expect(store.AddProtectedMinutes(25)).To(Succeed())

			events, err := store.RecentBlockEvents(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(2))

			stats, err := store.Stats(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(1))
			Expect(stats[0].BlocksCount).To(Equal(int64(2)))
			Expect(stats[0].MinutesProtected).To(Equal(int64(25)))
		})
	})
})

var _ = Describe("Hosts Fence", func() {
	var (
		tmpDir string
		hosts  *infra.HostsFile
	)

	const baseline = "127.0.0.1 localhost\n::1 localhost\n"

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bastion-hosts-*")
		Expect(err).NotTo(HaveOccurred())

		path := filepath.Join(tmpDir, "hosts")
		Expect(os.WriteFile(path, []byte(baseline), 0644)).To(Succeed())
		hosts = infra.NewHostsFile(path)
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("should restore the original file after a full block/unblock cycle", func() {
		Expect(hosts.Sync([]string{"twitter.com", "reddit.com"})).To(Succeed())
		Expect(hosts.Sync([]string{"reddit.com"})).To(Succeed())
		Expect(hosts.Sync(nil)).To(Succeed())

		raw, err := os.ReadFile(hosts.Path())
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(Equal(baseline))
	})
})
