package constants

/*
Defines a set of base level
constants and enums to be used
throughout the allele count store
and it's associated services.
*/
type VariantType string
type GenotypeIndex int
type Ploidy int

type Zygosity int
