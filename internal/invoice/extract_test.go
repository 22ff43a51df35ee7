package invoice

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aitorevi/extract-pdf-data/internal/pdfdoc"
	"github.com/aitorevi/extract-pdf-data/internal/template"
)

const multiPageTemplate = `{
	"provider_name": "Globex S.A.",
	"tax_id": "A-98765432",
	"fields": [
		{"name": "Name_Identification", "bbox": [10, 950, 200, 990], "kind": "text", "is_identification": true},
		{"name": "InvoiceNumber", "bbox": [300, 900, 500, 950], "kind": "text"},
		{"name": "InvoiceDate", "bbox": [300, 800, 500, 850], "kind": "date"},
		{"name": "Base", "bbox": [300, 700, 500, 750], "kind": "numeric"},
		{"name": "Shipping", "bbox": [300, 600, 500, 650], "kind": "numeric", "is_auxiliary": true},
		{"name": "DueDate", "bbox": [300, 500, 500, 550], "kind": "date", "is_optional": true},
		{"name": "OrderRef", "bbox": [300, 400, 500, 450], "kind": "text"}
	]
}`

// invoicePage builds a page carrying an invoice number plus optional field
// regions placed inside the template bboxes above.
func invoicePage(number string, regions ...pdfdoc.MemRegion) *pdfdoc.MemPage {
	page := &pdfdoc.MemPage{}
	if number != "" {
		page.Regions = append(page.Regions, pdfdoc.MemRegion{X: 400, Y: 920, Text: number})
	}
	page.Regions = append(page.Regions, regions...)
	return page
}

var _ = Describe("GroupPages", func() {
	var (
		tpl    *template.Template
		doc    *pdfdoc.MemDocument
		groups []PageGroup
		errs   []PageError
	)

	BeforeEach(func() {
		store := loadStore(map[string]string{"globex": multiPageTemplate})
		tpl, _ = store.Get("globex")
	})

	JustBeforeEach(func() {
		groups, errs = GroupPages(doc, tpl)
	})

	When("pages interleave two invoice numbers", func() {
		BeforeEach(func() {
			doc = &pdfdoc.MemDocument{
				DocName: "batch.pdf",
				PageList: []*pdfdoc.MemPage{
					invoicePage("F-001"),
					invoicePage("F-001"),
					invoicePage("F-002"),
					invoicePage("F-001"),
				},
			}
		})

		It("should group by number across the whole document", func() {
			Expect(errs).To(BeEmpty())
			Expect(groups).To(HaveLen(2))
			Expect(groups[0].InvoiceNumber).To(Equal("F-001"))
			Expect(groups[0].Pages).To(Equal([]int{0, 1, 3}))
			Expect(groups[1].InvoiceNumber).To(Equal("F-002"))
			Expect(groups[1].Pages).To(Equal([]int{2}))
		})

		It("should read fields from the last page of each group", func() {
			Expect(groups[0].Authoritative()).To(Equal(3))
			Expect(groups[1].Authoritative()).To(Equal(2))
		})
	})

	When("a page has no invoice number", func() {
		BeforeEach(func() {
			doc = &pdfdoc.MemDocument{
				DocName: "partial.pdf",
				PageList: []*pdfdoc.MemPage{
					invoicePage("F-001"),
					invoicePage(""),
				},
			}
		})

		It("should report a page error and keep the rest", func() {
			Expect(groups).To(HaveLen(1))
			Expect(errs).To(HaveLen(1))
			Expect(errs[0].Page).To(Equal(1))
			Expect(errs[0].Err).To(MatchError(ErrMissingInvoiceNumber))
		})
	})

	When("the number region holds a pagination artifact", func() {
		BeforeEach(func() {
			doc = &pdfdoc.MemDocument{
				DocName: "artifact.pdf",
				PageList: []*pdfdoc.MemPage{
					invoicePage("Page 2 of 3"),
					invoicePage("Página 2 de 3"),
					invoicePage("continued"),
					invoicePage("F-003"),
				},
			}
		})

		It("should reject the denylisted values page by page", func() {
			Expect(groups).To(HaveLen(1))
			Expect(groups[0].InvoiceNumber).To(Equal("F-003"))
			Expect(errs).To(HaveLen(3))
		})
	})

	When("the template has no invoice number field", func() {
		BeforeEach(func() {
			bare := &template.Template{
				ProviderName: "Bare",
				Fields: []template.FieldDefinition{
					{Name: "Base", BBox: []float64{0, 0, 10, 10}, Kind: template.KindNumeric},
				},
			}
			tpl = bare
			doc = &pdfdoc.MemDocument{
				DocName:  "bare.pdf",
				PageList: []*pdfdoc.MemPage{invoicePage("F-001"), invoicePage("F-002")},
			}
		})

		It("should error every page", func() {
			Expect(groups).To(BeEmpty())
			Expect(errs).To(HaveLen(2))
		})
	})
})

var _ = Describe("Extractor", func() {
	var (
		extractor *Extractor
		tpl       *template.Template
		now       time.Time
	)

	BeforeEach(func() {
		now = time.Date(2025, 4, 10, 9, 30, 0, 0, time.UTC)
		extractor = NewExtractor(func() time.Time { return now })

		store := loadStore(map[string]string{"globex": multiPageTemplate})
		tpl, _ = store.Get("globex")
	})

	When("a three-page invoice interleaves with a single-page one", func() {
		var (
			records []*Record
			errs    []PageError
		)

		BeforeEach(func() {
			doc := &pdfdoc.MemDocument{
				DocName: "batch.pdf",
				PageList: []*pdfdoc.MemPage{
					invoicePage("F-001",
						pdfdoc.MemRegion{X: 400, Y: 720, Text: "100,00"}),
					invoicePage("F-001",
						pdfdoc.MemRegion{X: 400, Y: 720, Text: "500,00"}),
					invoicePage("F-002",
						pdfdoc.MemRegion{X: 400, Y: 820, Text: "01/02/2025"},
						pdfdoc.MemRegion{X: 400, Y: 720, Text: "50,00"}),
					invoicePage("F-001",
						pdfdoc.MemRegion{X: 400, Y: 820, Text: "15/01/2025"},
						pdfdoc.MemRegion{X: 400, Y: 720, Text: "1.234,56"},
						pdfdoc.MemRegion{X: 400, Y: 420, Text: "PO-77"}),
				},
			}
			records, errs = extractor.Extract(doc, "globex", tpl)
		})

		It("should produce one record per invoice", func() {
			Expect(errs).To(BeEmpty())
			Expect(records).To(HaveLen(2))
		})

		It("should take every field from the authoritative page", func() {
			first := records[0]
			Expect(first.InvoiceNumber).To(Equal("F-001"))
			Expect(first.InvoiceDate).To(Equal("15/01/2025"))
			Expect(first.Base).To(Equal("1234.56"))
			Expect(first.Extras).To(HaveKeyWithValue("OrderRef", "PO-77"))
			Expect(first.PageIndex).To(Equal(3))
			Expect(first.TotalPages).To(Equal(3))
		})

		It("should stamp provider metadata and the clock", func() {
			Expect(records[0].ProviderID).To(Equal("globex"))
			Expect(records[0].ProviderName).To(Equal("Globex S.A."))
			Expect(records[0].TaxID).To(Equal("A98765432"))
			Expect(records[0].SourceFile).To(Equal("batch.pdf"))
			Expect(records[0].ProcessedAt).To(Equal(now))
		})

		It("should leave absent optional fields empty", func() {
			Expect(records[0].DueDate).To(Equal(""))
			Expect(records[1].DueDate).To(Equal(""))
		})
	})

	When("an auxiliary field is present", func() {
		var records []*Record

		BeforeEach(func() {
			doc := &pdfdoc.MemDocument{
				DocName: "aux.pdf",
				PageList: []*pdfdoc.MemPage{
					invoicePage("F-010",
						pdfdoc.MemRegion{X: 400, Y: 720, Text: "100,00"},
						pdfdoc.MemRegion{X: 400, Y: 620, Text: "12,50"}),
				},
			}
			records, _ = extractor.Extract(doc, "globex", tpl)
		})

		It("should fold the amount into the base and drop the extra", func() {
			Expect(records).To(HaveLen(1))
			Expect(records[0].Base).To(Equal("112.50"))
			Expect(records[0].Extras).ToNot(HaveKey("Shipping"))
		})
	})

	When("the auxiliary field is present but the base is empty", func() {
		var records []*Record

		BeforeEach(func() {
			doc := &pdfdoc.MemDocument{
				DocName: "auxonly.pdf",
				PageList: []*pdfdoc.MemPage{
					invoicePage("F-011",
						pdfdoc.MemRegion{X: 400, Y: 620, Text: "12,50"}),
				},
			}
			records, _ = extractor.Extract(doc, "globex", tpl)
		})

		It("should use the auxiliary amount as the base", func() {
			Expect(records).To(HaveLen(1))
			Expect(records[0].Base).To(Equal("12.50"))
		})
	})

	When("the authoritative page yields no usable fields", func() {
		It("should reject the invoice with ErrExtractionFailure", func() {
			doc := &pdfdoc.MemDocument{
				DocName:  "empty.pdf",
				PageList: []*pdfdoc.MemPage{invoicePage("F-020")},
			}

			records, errs := extractor.Extract(doc, "globex", tpl)
			Expect(records).To(BeEmpty())
			Expect(errs).To(HaveLen(1))
			Expect(errs[0].Err).To(MatchError(ErrExtractionFailure))
		})
	})
})

var _ = Describe("Record", func() {
	It("should route standard names to fields and others to extras", func() {
		r := &Record{}
		r.Set(template.FieldBase, "10.00")
		r.Set("Custom", "x")

		Expect(r.Base).To(Equal("10.00"))
		Expect(r.Get("Custom")).To(Equal("x"))
	})

	Describe("Row", func() {
		It("should carry the reporting labels and prefixed metadata", func() {
			r := &Record{
				ProviderName:  "Globex S.A.",
				TaxID:         "A98765432",
				InvoiceDate:   "15/01/2025",
				InvoiceNumber: "F-001",
				Base:          "1234.56",
				SourceFile:    "batch.pdf",
				PageIndex:     3,
				TotalPages:    3,
				ProcessedAt:   time.Date(2025, 4, 10, 9, 30, 0, 0, time.UTC),
			}

			row := r.Row("1T", "2025")
			Expect(row["Quarter"]).To(Equal("1T"))
			Expect(row["Year"]).To(Equal("2025"))
			Expect(row["InvoiceNumber"]).To(Equal("F-001"))
			Expect(row["_SourceFile"]).To(Equal("batch.pdf"))
			Expect(row["_Page"]).To(Equal("3"))
			Expect(row["_Duplicate"]).To(Equal("false"))
			Expect(row).ToNot(HaveKey("_DuplicateReason"))
		})

		It("should include the duplicate reason when set", func() {
			r := &Record{Duplicate: true, DuplicateReason: "already archived in 1T/2025"}

			row := r.Row("1T", "2025")
			Expect(row["_Duplicate"]).To(Equal("true"))
			Expect(row["_DuplicateReason"]).To(Equal("already archived in 1T/2025"))
		})
	})
})
