package plink

// Call is the diploid genotype of one sample at one variant, as a pair of
// haplotype values. Each slot is 0 (allele not counted), 1 (counted allele)
// or -1 (missing). Both slots are missing together or not at all.
type Call [2]int8

// Missing is the value stored in both haplotype slots of a missing call.
const Missing int8 = -1

var (
	CallHomozygousUncounted = Call{0, 0}
	// CallHeterozygous is the canonical order for heterozygous calls. The
	// .bed format is unphased; the order carries no meaning.
	CallHeterozygous      = Call{1, 0}
	CallHomozygousCounted = Call{1, 1}
	CallMissing           = Call{Missing, Missing}
)

// CallFromDosage maps a count of the counted allele (0, 1, 2 or Missing) to
// its haplotype pair.
func CallFromDosage(dosage int8) Call {
	switch dosage {
	case 0:
		return CallHomozygousUncounted
	case 1:
		return CallHeterozygous
	case 2:
		return CallHomozygousCounted
	}
	return CallMissing
}

// IsMissing reports whether the call has no genotype.
func (c Call) IsMissing() bool {
	return c[0] < 0
}

// Dosage returns the number of counted alleles in the call, or Missing.
func (c Call) Dosage() int8 {
	if c.IsMissing() {
		return Missing
	}
	return c[0] + c[1]
}

// The four 2-bit genotype codes of the .bed format. Allele 1 and 2 refer to
// columns 5 and 6 of the .bim.
const (
	codeHomozygousA1 byte = 0 // 0b00
	codeMissing      byte = 1 // 0b01
	codeHeterozygous byte = 2 // 0b10
	codeHomozygousA2 byte = 3 // 0b11
)

// dosageTable translates a 2-bit code into a dosage of the counted allele.
type dosageTable [4]int8

func newDosageTable(countA1 bool) dosageTable {
	var t dosageTable
	t[codeMissing] = Missing
	t[codeHeterozygous] = 1
	if countA1 {
		t[codeHomozygousA1] = 2
		t[codeHomozygousA2] = 0
	} else {
		t[codeHomozygousA1] = 0
		t[codeHomozygousA2] = 2
	}
	return t
}
