package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/plink"
)

func main() {
	path := flag.String("plink", "", "Path of the fileset, without the .bed/.bim/.fam extension")
	integerContigs := flag.Bool("integer-contigs", false, "Treat .bim contigs as integers")
	countA2 := flag.Bool("count-a2", false, "Count allele 2 instead of allele 1")
	nVariants := flag.Int("n", 10, "Number of variants to print")
	flag.Parse()

	if *path == "" {
		flag.PrintDefaults()
		log.Fatalln("No fileset given")
	}

	if strings.HasPrefix(*path, "~/") {
		usr, err := user.Current()
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		*path = filepath.Join(usr.HomeDir, (*path)[2:])
	}

	ds, err := plink.Read(context.Background(), plink.Paths{Path: *path},
		plink.WithIntegerContigs(*integerContigs),
		plink.WithCountA1(!*countA2),
		plink.WithLogger(log.New(os.Stderr, "", log.LstdFlags)),
	)
	if err != nil {
		log.Fatalln(err)
	}
	defer ds.Close()

	log.Printf("Sizes: %+v\n", ds.Sizes())

	contigs, err := ds.Contigs()
	if err != nil {
		log.Fatalln(err)
	}
	log.Println("Contigs:", contigs)

	samples, err := ds.Samples()
	if err != nil {
		log.Fatalln(err)
	}
	i := 0
	for _, sample := range samples {
		fmt.Println(i, sample.MemberID)
		i++

		if i > 10 {
			break
		}
	}
	if i > 0 {
		log.Println("Saw up to", samples[i-1].MemberID)
	}

	variants, err := ds.Variants()
	if err != nil {
		log.Fatalln(err)
	}

	n := min(*nVariants, len(variants))
	view, err := ds.CallGenotype().Slice(plink.Span(0, n), plink.All(), plink.All())
	if err != nil {
		log.Fatalln(err)
	}
	block, err := view.Values(context.Background())
	if err != nil {
		log.Fatalln(err)
	}

	for v := 0; v < n; v++ {
		missing := 0
		dosage := 0
		for s := 0; s < block.Shape[1]; s++ {
			call := block.Call(v, s)
			if call.IsMissing() {
				missing++
				continue
			}
			dosage += int(call.Dosage())
		}
		fmt.Printf("%d) %s %s:%d %s/%s dosage=%d missing=%d\n", v, variants[v].ID, variants[v].Contig.String, variants[v].Position, variants[v].Allele1, variants[v].Allele2, dosage, missing)
	}

	log.Printf("Cache: %+v\n", ds.CallGenotype().CacheStats())
}
