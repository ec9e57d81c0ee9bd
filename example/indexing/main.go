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

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		usr, err := user.Current()
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		return filepath.Join(usr.HomeDir, path[2:])
	}
	return path
}

func main() {
	path := flag.String("plink", "", "Path of the fileset, without the .bed/.bim/.fam extension")
	idxPath := flag.String("index", "", "Filename of the variant index; built if it does not exist. Defaults to the fileset path + .idx")
	contig := flag.String("contig", "", "Contig of the region to extract")
	start := flag.Int("start", 0, "First position of the region")
	end := flag.Int("end", 0, "Last position of the region")
	id := flag.String("id", "", "Variant ID to extract instead of a region")
	flag.Parse()

	if *path == "" {
		flag.PrintDefaults()
		log.Fatalln("No fileset given")
	}

	*path = expandHome(*path)
	if *idxPath == "" {
		*idxPath = *path + ".idx"
	}
	*idxPath = expandHome(*idxPath)

	log.Println("Opening fileset:", *path)
	ds, err := plink.Open(*path)
	if err != nil {
		log.Fatalln(err)
	}
	defer ds.Close()

	var idx *plink.BIMIndex
	if _, err := os.Stat(*idxPath); os.IsNotExist(err) {
		log.Println("Building index", *idxPath, "with driver", plink.WhichSQLiteDriver())
		idx, err = plink.BuildIndex(ds, *idxPath)
		if err != nil {
			log.Fatalln(err)
		}
	} else {
		idx, err = plink.OpenIndex(*idxPath)
		if err != nil {
			log.Fatalln(err)
		}
	}
	defer idx.Close()
	idx.Metadata.FirstThousandBytes = nil

	log.Printf("Index Metadata: %+v\n", idx.Metadata)

	var rows []plink.VariantIndex
	if *id != "" {
		rows, err = idx.Lookup(*id)
	} else {
		rows, err = idx.Region(*contig, int32(*start), int32(*end))
	}
	if err != nil {
		log.Fatalln(err)
	}
	log.Println("Index matched", len(rows), "variants")
	if len(rows) == 0 {
		return
	}

	view, err := ds.CallGenotype().Slice(plink.SelectVariants(rows), plink.All(), plink.All())
	if err != nil {
		log.Fatalln(err)
	}
	block, err := view.Values(context.Background())
	if err != nil {
		log.Fatalln(err)
	}

	for i, row := range rows {
		counts := map[int8]int{}
		for s := 0; s < block.Shape[1]; s++ {
			counts[block.Call(i, s).Dosage()]++
		}
		fmt.Printf("%d) %s %s:%d %s/%s dosage counts %v\n", row.VariantIndex, row.VariantID, row.Contig.String, row.Position, row.Allele1, row.Allele2, counts)
	}
}
