package main

import (
	"context"
	"flag"
	"log"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/carbocation/pfx"
	"github.com/carbocation/plink"
)

func main() {
	path := flag.String("plink", "", "Path of the fileset, without the .bed/.bim/.fam extension")
	workers := flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
	chunk := flag.Int("chunk", 1000, "Chunk length along both axes")
	flag.Parse()

	if *path == "" {
		flag.PrintDefaults()
		log.Fatalln("No fileset found")
	}

	if strings.HasPrefix(*path, "~/") {
		usr, err := user.Current()
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		*path = filepath.Join(usr.HomeDir, (*path)[2:])
	}

	// Whole-tensor pass: chunks are decoded concurrently by the pool.
	ds, err := plink.Open(*path,
		plink.WithExecutor(plink.ThreadPool{Workers: *workers}),
		plink.WithChunks(plink.UniformChunks(*chunk)),
	)
	if err != nil {
		log.Fatalln(err)
	}
	defer ds.Close()

	block, err := ds.CallGenotype().Values(context.Background())
	if err != nil {
		log.Fatalln(err)
	}
	total := AlleleCounter{}
	for i := 0; i < block.Len(); i += plink.Ploidy {
		total.Add(plink.Call{block.Data[i], block.Data[i+1]})
	}
	log.Printf("Tensor pass: %+v\n", total)
	log.Printf("Cache: %+v\n", ds.CallGenotype().CacheStats())

	// Per-variant pass: each worker walks its own VariantReader over a
	// shared .bed handle.
	variants, err := ds.Variants()
	if err != nil {
		log.Fatalln(err)
	}
	samples, err := ds.Samples()
	if err != nil {
		log.Fatalln(err)
	}

	bed, err := plink.OpenBed(ds.BedPath, len(variants), len(samples))
	if err != nil {
		log.Fatalln(err)
	}
	defer bed.Close()

	offset := make(chan int)
	output := make(chan AlleleCounter)

	var wg sync.WaitGroup
	log.Println("Launching", *workers, "workers")
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			Worker(workerID, bed, offset, output)
		}(i)
	}

	go func() {
		for i := range variants {
			if i%1000 == 0 {
				log.Println("Processed", i, "variants")
			}
			offset <- i
		}
		close(offset)
		wg.Wait()
		close(output)
	}()

	accumulator := AlleleCounter{}
	for o := range output {
		accumulator.Counted += o.Counted
		accumulator.Uncounted += o.Uncounted
		accumulator.Missing += o.Missing
	}
	log.Println("Final accumulated stats")
	log.Printf("%+v\n", accumulator)
}

type AlleleCounter struct {
	Counted, Uncounted, Missing int
}

func (a *AlleleCounter) Add(call plink.Call) {
	if call.IsMissing() {
		a.Missing += plink.Ploidy
		return
	}
	d := int(call.Dosage())
	a.Counted += d
	a.Uncounted += plink.Ploidy - d
}

// Each worker keeps its own VariantReader, whose buffer is not safe for
// concurrent use; the BedReader underneath is.
func Worker(workerID int, bed *plink.BedReader, offset <-chan int, output chan<- AlleleCounter) {
	vr := bed.NewVariantReader()

	for incoming := range offset {
		variant, err := vr.ReadAt(incoming)
		if err != nil {
			log.Fatalf("Worker %d: %v\n", workerID, err)
		}

		ac := AlleleCounter{}
		for _, call := range variant.Calls {
			ac.Add(call)
		}

		output <- ac
	}
}
