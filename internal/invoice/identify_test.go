package invoice

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aitorevi/extract-pdf-data/internal/pdfdoc"
	"github.com/aitorevi/extract-pdf-data/internal/template"
)

const acmeTemplate = `{
	"provider_name": "Acme Consulting S.L.",
	"tax_id": "B-12345678",
	"fields": [
		{"name": "TaxID_Identification", "bbox": [10, 700, 200, 750], "kind": "text", "is_identification": true},
		{"name": "Name_Identification", "bbox": [10, 640, 200, 690], "kind": "text", "is_identification": true},
		{"name": "InvoiceNumber", "bbox": [300, 700, 500, 750], "kind": "text"},
		{"name": "InvoiceDate", "bbox": [300, 640, 500, 690], "kind": "date"}
	]
}`

func loadStore(templates map[string]string) *template.Store {
	dir := GinkgoT().TempDir()
	for name, body := range templates {
		Expect(os.WriteFile(filepath.Join(dir, name+".json"), []byte(body), 0644)).To(Succeed())
	}

	store := template.NewStore()
	_, err := store.LoadDir(dir)
	Expect(err).ToNot(HaveOccurred())
	return store
}

var _ = Describe("Identify", func() {
	var (
		store *template.Store
		doc   *pdfdoc.MemDocument
	)

	BeforeEach(func() {
		store = loadStore(map[string]string{"acme": acmeTemplate})
		doc = &pdfdoc.MemDocument{
			DocName:  "invoice.pdf",
			PageList: []*pdfdoc.MemPage{{}},
		}
	})

	When("the tax id region matches exactly after normalization", func() {
		BeforeEach(func() {
			doc.PageList[0].Regions = []pdfdoc.MemRegion{
				{X: 50, Y: 720, Text: "b 12345678"},
			}
		})

		It("should identify the provider", func() {
			id, tpl, err := Identify(doc, store)
			Expect(err).ToNot(HaveOccurred())
			Expect(id).To(Equal("acme"))
			Expect(tpl.ProviderName).To(Equal("Acme Consulting S.L."))
		})
	})

	When("the name region is similar enough", func() {
		BeforeEach(func() {
			doc.PageList[0].Regions = []pdfdoc.MemRegion{
				{X: 50, Y: 660, Text: "ACME Consulting S.L"},
			}
		})

		It("should identify the provider", func() {
			id, _, err := Identify(doc, store)
			Expect(err).ToNot(HaveOccurred())
			Expect(id).To(Equal("acme"))
		})
	})

	When("neither identification region matches", func() {
		BeforeEach(func() {
			doc.PageList[0].Regions = []pdfdoc.MemRegion{
				{X: 50, Y: 720, Text: "CIF: A-99999999"},
				{X: 50, Y: 660, Text: "Globex Corporation"},
			}
		})

		It("should return ErrUnidentifiedProvider", func() {
			_, _, err := Identify(doc, store)
			Expect(err).To(MatchError(ErrUnidentifiedProvider))
		})
	})

	When("the document has no pages", func() {
		BeforeEach(func() {
			doc.PageList = nil
		})

		It("should return ErrUnidentifiedProvider", func() {
			_, _, err := Identify(doc, store)
			Expect(err).To(MatchError(ErrUnidentifiedProvider))
		})
	})

	When("the identification regions are empty", func() {
		It("should return ErrUnidentifiedProvider", func() {
			_, _, err := Identify(doc, store)
			Expect(err).To(MatchError(ErrUnidentifiedProvider))
		})
	})
})

var _ = Describe("Similarity", func() {
	It("should score identical strings 100", func() {
		Expect(Similarity("Acme Consulting", "Acme Consulting")).To(Equal(100.0))
	})

	It("should ignore case and punctuation", func() {
		Expect(Similarity("ACME, Consulting.", "acme consulting")).To(Equal(100.0))
	})

	It("should score a trailing difference proportionally", func() {
		// 14 of 15 positions match once normalized.
		score := Similarity("Acme Consultin", "Acme Consulting")
		Expect(score).To(BeNumerically("~", 93.3, 0.1))
	})

	It("should punish a leading insertion heavily", func() {
		Expect(Similarity("XAcme", "Acme")).To(BeNumerically("<", SimilarityThreshold))
	})

	It("should score two empty strings 0", func() {
		Expect(Similarity("", "")).To(Equal(0.0))
	})
})
