package constants

type Genotype string

const (
	// # Haploid
	GT_HAPLOID_NO_CALL Genotype = "."
	GT_REFERENCE       Genotype = "0"
	GT_ALTERNATE       Genotype = "1"

	// # Diploid or higher
	GT_NO_CALL              Genotype = "./."
	GT_HOMOZYGOUS_REFERENCE Genotype = "0/0"
	GT_HETEROZYGOUS         Genotype = "0/1"
	GT_HOMOZYGOUS_ALTERNATE Genotype = "1/1"
)
