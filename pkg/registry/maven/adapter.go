// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package maven

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xregistry-gateway/maven-gateway/internal/xregistry"
	"github.com/xregistry-gateway/maven-gateway/pkg/index"
)

//go:embed models/maven.yaml
var modelYAML []byte

const (
	groupPlural      = "javaregistries"
	groupSingular    = "javaregistry"
	resourcePlural   = "packages"
	resourceSingular = "package"
)

// Adapter is the Maven xRegistry adapter: the one concrete instance of
// internal/xregistry.Adapter this gateway ships. It fronts a single Group,
// "maven-central", backed by Registry for on-demand upstream calls and,
// when available, Searcher for the bulk coordinate catalogue.
type Adapter struct {
	Registry Registry
	Searcher *index.Searcher
	// RegistryID is the sole Group this adapter serves, e.g. "maven-central".
	RegistryID string
	// RegistryName is the Group's human-readable name.
	RegistryName string
	Model        *xregistry.Model
	Epoch        int
	StartedAt    time.Time

	baseURLOverride string
	quiet           bool
}

// NewAdapter loads the embedded model document and returns a ready-to-mount
// Adapter. epoch is the process-lifetime epoch every entity this adapter
// serves reports, per spec.md §3.
func NewAdapter(reg Registry, searcher *index.Searcher, registryID, registryName string, epoch int, startedAt time.Time) (*Adapter, error) {
	model, err := xregistry.LoadModel(modelYAML, groupPlural, groupSingular, resourcePlural, resourceSingular)
	if err != nil {
		return nil, errors.Wrap(err, "loading maven resource model")
	}
	return &Adapter{
		Registry:     reg,
		Searcher:     searcher,
		RegistryID:   registryID,
		RegistryName: registryName,
		Model:        model,
		Epoch:        epoch,
		StartedAt:    startedAt,
	}, nil
}

var _ xregistry.Adapter = (*Adapter)(nil)
var _ xregistry.HandlerSet = (*Adapter)(nil)

// GroupPlural implements xregistry.Adapter.
func (a *Adapter) GroupPlural() string { return groupPlural }

// GetModel implements xregistry.Adapter.
func (a *Adapter) GetModel() *xregistry.Model { return a.Model }

// AttachToApp implements xregistry.Adapter.
func (a *Adapter) AttachToApp(router *mux.Router, opts xregistry.AttachOptions) {
	a.baseURLOverride = opts.BaseURLOverride
	a.quiet = opts.Quiet
	xregistry.RegisterGroupRoutes(router, groupPlural, resourcePlural, a)
}

func (a *Adapter) logf(format string, args ...any) {
	if !a.quiet {
		log.Printf(format, args...)
	}
}

// GroupCollection implements xregistry.HandlerSet. There is exactly one
// Group, so the collection always has one entry.
func (a *Adapter) GroupCollection(w http.ResponseWriter, r *http.Request) {
	f, problem := xregistry.ParseFlags(r)
	if problem != nil {
		xregistry.WriteProblem(w, problem)
		return
	}
	body := xregistry.Entity{a.RegistryID: a.groupEntity(xregistry.BaseURL(r, a.baseURLOverride))}
	a.applyFlags(body, f)
	w.Header().Set("Link", xregistry.LinkHeader(r, xregistry.Page{Total: 1, Offset: 0, Limit: 1}))
	a.writeEntity(w, r, body, f)
}

// GroupDetail implements xregistry.HandlerSet.
func (a *Adapter) GroupDetail(w http.ResponseWriter, r *http.Request) {
	gid := xregistry.PathVar(r, "gid")
	if gid != a.RegistryID {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindNotFound, r.URL.Path, fmt.Sprintf("unknown registry %q", gid)))
		return
	}
	f, problem := xregistry.ParseFlags(r)
	if problem != nil {
		xregistry.WriteProblem(w, problem)
		return
	}
	body := a.groupEntity(xregistry.BaseURL(r, a.baseURLOverride))
	a.applyFlags(body, f)
	a.writeEntity(w, r, body, f)
}

func (a *Adapter) groupEntity(base string) xregistry.Entity {
	xid := xregistry.XID(groupPlural, a.RegistryID)
	e := xregistry.Entity{
		"name":           a.RegistryName,
		"description":    "Maven Central, federated as an xRegistry group",
		resourcePlural + "url": xid + "/" + resourcePlural,
	}
	return xregistry.Shape(e, xid, base, a.Epoch, a.StartedAt, a.StartedAt)
}

// ResourceCollection implements xregistry.HandlerSet.
func (a *Adapter) ResourceCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gid := xregistry.PathVar(r, "gid")
	if gid != a.RegistryID {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindNotFound, r.URL.Path, fmt.Sprintf("unknown registry %q", gid)))
		return
	}
	f, problem := xregistry.ParseFlags(r)
	if problem != nil {
		xregistry.WriteProblem(w, problem)
		return
	}

	limit := 50
	if f.Limit != nil {
		limit = *f.Limit
	}
	rows, total, err := a.searchPackages(ctx, f, limit)
	if err != nil {
		if errors.Is(err, index.ErrUnavailable) {
			xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindBadGateway, r.URL.Path,
				"package catalogue is not yet available; narrow the query with filter=groupId=...,artifactId=..."))
			return
		}
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindBadGateway, r.URL.Path, err.Error()))
		return
	}

	base := xregistry.BaseURL(r, a.baseURLOverride)
	items := make([]xregistry.Entity, 0, len(rows))
	for _, row := range rows {
		items = append(items, a.packageSummary(base, row))
	}
	a.attachVersionCounts(ctx, items)

	body := xregistry.Entity{}
	for _, item := range items {
		rid, _ := item["name"].(string)
		a.applyFlags(item, f)
		body[rid] = item
	}

	if len(rows) == 0 && f.Offset > 0 && total > 0 {
		w.Header().Add("Warning", xregistry.Warning("offset beyond end of collection"))
	}
	w.Header().Set("Link", xregistry.LinkHeader(r, xregistry.Page{Total: total, Offset: f.Offset, Limit: limit}))
	a.writeEntity(w, r, body, f)
}

// packageSummary builds the identity/listing attributes for one resource;
// the expensive POM-derived detail fields are only populated on ResourceDetail
// and VersionDetail.
func (a *Adapter) packageSummary(base string, row index.PackageRow) xregistry.Entity {
	rid := row.Coordinates
	xid := xregistry.XID(groupPlural, a.RegistryID, resourcePlural, rid)
	e := xregistry.Entity{
		"groupId":     row.GroupID,
		"artifactId":  row.ArtifactID,
		"name":        rid,
		"versionsurl": xid + "/versions",
		"metaurl":     xid + "/meta",
	}
	return xregistry.Shape(e, xid, base, a.Epoch, a.StartedAt, a.StartedAt)
}

// attachVersionCounts fills in versionscount for each item by fetching
// maven-metadata.xml concurrently, bounded to avoid hammering the upstream
// registry for a wide page. A failed lookup just leaves the field unset;
// catalogue listing must not fail because one coordinate's metadata 404s.
func (a *Adapter) attachVersionCounts(ctx context.Context, items []xregistry.Entity) {
	eg, eCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(4, runtime.NumCPU()))
	for _, item := range items {
		item := item
		eg.Go(func() error {
			groupID, _ := item["groupId"].(string)
			artifactID, _ := item["artifactId"].(string)
			meta, err := a.Registry.Metadata(eCtx, groupID, artifactID)
			if err != nil {
				a.logf("maven: versioncount lookup for %s:%s failed: %v", groupID, artifactID, err)
				return nil
			}
			item["versionscount"] = len(meta.Versions)
			return nil
		})
	}
	_ = eg.Wait()
}

// searchPackages resolves a page of coordinates either from the bulk index
// (preferred) or, when no index is loaded yet, from a Solr query derived
// from the filter flag.
func (a *Adapter) searchPackages(ctx context.Context, f *xregistry.Flags, limit int) ([]index.PackageRow, int, error) {
	if a.Searcher != nil {
		res, err := a.Searcher.Search(ctx, index.Query{
			Text:      filterText(f.Filter),
			Limit:     limit,
			Offset:    f.Offset,
			SortBy:    sortColumn(f.Sort),
			SortOrder: sortDirection(f.Sort),
		})
		if err != nil {
			return nil, 0, errors.Wrap(err, "searching package index")
		}
		return res.Results, res.TotalCount, nil
	}

	groupID, artifactID := filterCoordinate(f.Filter)
	if groupID == "" && artifactID == "" {
		return nil, 0, index.ErrUnavailable
	}
	results, total, err := a.Registry.Search(ctx, orWildcard(groupID), orWildcard(artifactID), "", limit, f.Offset)
	if err != nil {
		return nil, 0, err
	}
	seen := make(map[string]bool, len(results))
	rows := make([]index.PackageRow, 0, len(results))
	for _, res := range results {
		coord := res.GroupID + ":" + res.ArtifactID
		if seen[coord] {
			continue
		}
		seen[coord] = true
		rows = append(rows, index.PackageRow{GroupID: res.GroupID, ArtifactID: res.ArtifactID, Coordinates: coord})
	}
	return rows, total, nil
}

func orWildcard(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

// filterCoordinate pulls groupId/artifactId equality terms out of an
// xRegistry filter expression, for the Solr fallback path which needs them
// split rather than as one free-text string.
func filterCoordinate(filter string) (groupID, artifactID string) {
	if !strings.Contains(filter, "=") {
		return "", ""
	}
	for _, clause := range strings.Split(filter, ",") {
		kv := strings.SplitN(clause, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.TrimSpace(kv[0]) {
		case "groupId":
			groupID = strings.TrimSpace(kv[1])
		case "artifactId":
			artifactID = strings.TrimSpace(kv[1])
		}
	}
	return groupID, artifactID
}

// filterText turns an xRegistry filter expression into index.Query.Text:
// a "groupId=X,artifactId=Y" structured filter becomes "X:Y" so the index's
// own FTS query-preparation splits it back into an ANDed pair; anything
// else (including free text) passes through unchanged.
func filterText(filter string) string {
	if g, a := filterCoordinate(filter); g != "" || a != "" {
		return g + ":" + a
	}
	return filter
}

func sortColumn(spec string) string {
	attr := strings.SplitN(spec, "=", 2)[0]
	switch attr {
	case "groupId":
		return "group_id"
	case "artifactId":
		return "artifact_id"
	case "name":
		return "coordinates"
	default:
		return attr
	}
}

func sortDirection(spec string) string {
	parts := strings.SplitN(spec, "=", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return "ASC"
}

// ResourceDetail implements xregistry.HandlerSet.
func (a *Adapter) ResourceDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gid := xregistry.PathVar(r, "gid")
	rid := xregistry.PathVar(r, "rid")
	if gid != a.RegistryID {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindNotFound, r.URL.Path, fmt.Sprintf("unknown registry %q", gid)))
		return
	}
	groupID, artifactID, err := splitCoordinate(rid)
	if err != nil {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindInvalidData, r.URL.Path, err.Error()))
		return
	}
	f, problem := xregistry.ParseFlags(r)
	if problem != nil {
		xregistry.WriteProblem(w, problem)
		return
	}

	meta, err := a.Registry.Metadata(ctx, groupID, artifactID)
	if err != nil {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindNotFound, r.URL.Path,
			fmt.Sprintf("unknown maven coordinate %q: %v", rid, err)))
		return
	}
	version := defaultVersion(meta)

	base := xregistry.BaseURL(r, a.baseURLOverride)
	body, err := a.packageDetail(ctx, base, groupID, artifactID, version, meta)
	if err != nil {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindBadGateway, r.URL.Path, err.Error()))
		return
	}
	a.applyMetaInline(body, f, base)
	a.applyFlags(body, f)
	a.writeEntity(w, r, body, f)
}

// splitCoordinate parses a resource or version identifier of the form
// "groupId:artifactId".
func splitCoordinate(rid string) (groupID, artifactID string, err error) {
	groupID, artifactID, ok := strings.Cut(rid, ":")
	if !ok || groupID == "" || artifactID == "" {
		return "", "", errors.Errorf("malformed maven coordinate %q, expected groupId:artifactId", rid)
	}
	return groupID, artifactID, nil
}

// defaultVersion picks the version a bare Resource (and its /doc, /meta)
// represent: Metadata's Release, falling back to Latest, falling back to
// the newest entry in Versions by the Maven comparator.
func defaultVersion(meta *Metadata) string {
	if meta.Release != "" {
		return meta.Release
	}
	if meta.Latest != "" {
		return meta.Latest
	}
	best := ""
	for _, v := range meta.Versions {
		if best == "" || CompareVersions(v, best) > 0 {
			best = v
		}
	}
	return best
}

// packageDetail builds the full POM-derived entity for one resolved
// version, shared by ResourceDetail and VersionDetail.
func (a *Adapter) packageDetail(ctx context.Context, base, groupID, artifactID, version string, meta *Metadata) (xregistry.Entity, error) {
	rid := groupID + ":" + artifactID
	resourcePath := xregistry.XID(groupPlural, a.RegistryID, resourcePlural, rid)
	xid := resourcePath
	if version != "" {
		xid = resourcePath + "/versions/" + version
	}

	e := xregistry.Entity{
		"groupId":     groupID,
		"artifactId":  artifactID,
		"name":        rid,
		"versionsurl": resourcePath + "/versions",
		"metaurl":     resourcePath + "/meta",
	}
	if meta != nil {
		e["versionscount"] = len(meta.Versions)
	}
	if version == "" {
		return xregistry.Shape(e, xid, base, a.Epoch, a.StartedAt, a.StartedAt), nil
	}
	e["version"] = version

	pom, err := a.Registry.POM(ctx, groupID, artifactID, version)
	if err != nil {
		a.logf("maven: POM fetch for %s@%s failed: %v", rid, version, err)
		return xregistry.Shape(e, xid, base, a.Epoch, a.StartedAt, a.StartedAt), nil
	}

	if pom.Packaging != "" {
		e["packaging"] = pom.Packaging
	}
	if pom.Homepage != "" {
		e["homepage"] = pom.Homepage
		e["docs"] = pom.Homepage
	}
	if pom.Organization.Name != "" || pom.Organization.URL != "" {
		e["organization"] = xregistry.Entity{"name": pom.Organization.Name, "url": pom.Organization.URL}
	}
	if len(pom.Developers) > 0 {
		developers := make([]xregistry.Entity, len(pom.Developers))
		for i, d := range pom.Developers {
			developers[i] = xregistry.Entity{"name": d.Name, "email": d.Email}
		}
		e["developers"] = developers
	}
	if len(pom.Licenses) > 0 {
		licenses := make([]xregistry.Entity, len(pom.Licenses))
		for i, l := range pom.Licenses {
			licenses[i] = xregistry.Entity{"name": l.Name, "url": l.URL}
		}
		e["licenses"] = licenses
	}
	if pom.SCM.URL != "" || pom.SCM.Connection != "" || pom.SCM.DeveloperConnection != "" {
		e["scm"] = xregistry.Entity{
			"url":                 pom.SCM.URL,
			"connection":          pom.SCM.Connection,
			"developerConnection": pom.SCM.DeveloperConnection,
		}
	}
	if pom.IssueManagement.System != "" || pom.IssueManagement.URL != "" {
		e["issueManagement"] = xregistry.Entity{"system": pom.IssueManagement.System, "url": pom.IssueManagement.URL}
	}
	if len(pom.Dependencies) > 0 {
		deps := make([]xregistry.Entity, len(pom.Dependencies))
		for i, d := range pom.Dependencies {
			depPath := xregistry.XID(groupPlural, a.RegistryID, resourcePlural, d.GroupID+":"+d.ArtifactID)
			resolved := ResolveDependency(ctx, a.Registry, d, depPath)
			dep := xregistry.Entity{
				"groupId":    resolved.GroupID,
				"artifactId": resolved.ArtifactID,
				"version":    d.Version,
				"scope":      resolved.Scope,
				"optional":   resolved.Optional,
			}
			if resolved.ResolvedVersion != "" {
				dep["resolved_version"] = resolved.ResolvedVersion
			}
			if resolved.Package != "" {
				dep["package"] = resolved.Package
			}
			deps[i] = dep
		}
		e["dependencies"] = deps
	}

	return xregistry.Shape(e, xid, base, a.Epoch, a.StartedAt, a.StartedAt), nil
}

// ResourceMeta implements xregistry.HandlerSet.
func (a *Adapter) ResourceMeta(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gid := xregistry.PathVar(r, "gid")
	rid := xregistry.PathVar(r, "rid")
	if gid != a.RegistryID {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindNotFound, r.URL.Path, fmt.Sprintf("unknown registry %q", gid)))
		return
	}
	groupID, artifactID, err := splitCoordinate(rid)
	if err != nil {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindInvalidData, r.URL.Path, err.Error()))
		return
	}
	f, problem := xregistry.ParseFlags(r)
	if problem != nil {
		xregistry.WriteProblem(w, problem)
		return
	}
	meta, err := a.Registry.Metadata(ctx, groupID, artifactID)
	if err != nil {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindNotFound, r.URL.Path,
			fmt.Sprintf("unknown maven coordinate %q: %v", rid, err)))
		return
	}
	base := xregistry.BaseURL(r, a.baseURLOverride)
	body := a.metaEntity(base, rid, defaultVersion(meta))
	a.applyFlags(body, f)
	a.writeEntity(w, r, body, f)
}

func (a *Adapter) metaEntity(base, rid, version string) xregistry.Entity {
	resourcePath := xregistry.XID(groupPlural, a.RegistryID, resourcePlural, rid)
	xid := resourcePath + "/meta"
	e := xregistry.Entity{
		"defaultversionid":     version,
		"defaultversionurl":    resourcePath + "/versions/" + version,
		"defaultversionsticky": false,
		"readonly":             true,
		"compatibility":        "none",
	}
	return xregistry.Shape(e, xid, base, a.Epoch, a.StartedAt, a.StartedAt)
}

func (a *Adapter) applyMetaInline(body xregistry.Entity, f *xregistry.Flags, base string) {
	if !f.Inlines("meta") {
		return
	}
	rid, _ := body["name"].(string)
	version, _ := body["version"].(string)
	if version == "" {
		return
	}
	body["meta"] = a.metaEntity(base, rid, version)
	delete(body, "metaurl")
}

// ResourceDoc implements xregistry.HandlerSet: redirects to the resource's
// documentation URL (the POM's homepage) when one is known.
func (a *Adapter) ResourceDoc(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gid := xregistry.PathVar(r, "gid")
	rid := xregistry.PathVar(r, "rid")
	if gid != a.RegistryID {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindNotFound, r.URL.Path, fmt.Sprintf("unknown registry %q", gid)))
		return
	}
	groupID, artifactID, err := splitCoordinate(rid)
	if err != nil {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindInvalidData, r.URL.Path, err.Error()))
		return
	}
	meta, err := a.Registry.Metadata(ctx, groupID, artifactID)
	if err != nil {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindNotFound, r.URL.Path,
			fmt.Sprintf("unknown maven coordinate %q: %v", rid, err)))
		return
	}
	version := defaultVersion(meta)
	pom, err := a.Registry.POM(ctx, groupID, artifactID, version)
	if err != nil || pom.Homepage == "" {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindNotFound, r.URL.Path, "no documentation URL known for this coordinate"))
		return
	}
	http.Redirect(w, r, pom.Homepage, http.StatusFound)
}

// VersionCollection implements xregistry.HandlerSet.
func (a *Adapter) VersionCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gid := xregistry.PathVar(r, "gid")
	rid := xregistry.PathVar(r, "rid")
	if gid != a.RegistryID {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindNotFound, r.URL.Path, fmt.Sprintf("unknown registry %q", gid)))
		return
	}
	groupID, artifactID, err := splitCoordinate(rid)
	if err != nil {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindInvalidData, r.URL.Path, err.Error()))
		return
	}
	f, problem := xregistry.ParseFlags(r)
	if problem != nil {
		xregistry.WriteProblem(w, problem)
		return
	}
	meta, err := a.Registry.Metadata(ctx, groupID, artifactID)
	if err != nil {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindNotFound, r.URL.Path,
			fmt.Sprintf("unknown maven coordinate %q: %v", rid, err)))
		return
	}

	base := xregistry.BaseURL(r, a.baseURLOverride)
	resourcePath := xregistry.XID(groupPlural, a.RegistryID, resourcePlural, rid)
	items := make([]xregistry.Entity, 0, len(meta.Versions))
	for _, v := range meta.Versions {
		xid := resourcePath + "/versions/" + v
		e := xregistry.Entity{"groupId": groupID, "artifactId": artifactID, "version": v, "name": v}
		items = append(items, xregistry.Shape(e, xid, base, a.Epoch, a.StartedAt, a.StartedAt))
	}
	items = xregistry.ApplyFilter(items, f.Filter, a.Model)
	items = xregistry.ApplySort(items, f.Sort, a.Model)
	limit := 50
	if f.Limit != nil {
		limit = *f.Limit
	}
	page, beyondEnd := xregistry.Paginate(items, f.Offset, limit)
	if beyondEnd {
		w.Header().Add("Warning", xregistry.Warning("offset beyond end of collection"))
	}

	body := xregistry.Entity{}
	for _, item := range page {
		v, _ := item["version"].(string)
		a.applyFlags(item, f)
		body[v] = item
	}
	w.Header().Set("Link", xregistry.LinkHeader(r, xregistry.Page{Total: len(items), Offset: f.Offset, Limit: limit}))
	a.writeEntity(w, r, body, f)
}

// VersionDetail implements xregistry.HandlerSet.
func (a *Adapter) VersionDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gid := xregistry.PathVar(r, "gid")
	rid := xregistry.PathVar(r, "rid")
	vid := xregistry.PathVar(r, "vid")
	if gid != a.RegistryID {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindNotFound, r.URL.Path, fmt.Sprintf("unknown registry %q", gid)))
		return
	}
	groupID, artifactID, err := splitCoordinate(rid)
	if err != nil {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindInvalidData, r.URL.Path, err.Error()))
		return
	}
	f, problem := xregistry.ParseFlags(r)
	if problem != nil {
		xregistry.WriteProblem(w, problem)
		return
	}
	meta, err := a.Registry.Metadata(ctx, groupID, artifactID)
	if err != nil {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindNotFound, r.URL.Path,
			fmt.Sprintf("unknown maven coordinate %q: %v", rid, err)))
		return
	}
	if !meta.HasVersion(vid) {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindNotFound, r.URL.Path,
			fmt.Sprintf("unknown version %q of %q", vid, rid)))
		return
	}

	base := xregistry.BaseURL(r, a.baseURLOverride)
	body, err := a.packageDetail(ctx, base, groupID, artifactID, vid, meta)
	if err != nil {
		xregistry.WriteProblem(w, xregistry.NewProblem(xregistry.KindBadGateway, r.URL.Path, err.Error()))
		return
	}
	a.applyMetaInline(body, f, base)
	a.applyFlags(body, f)
	a.writeEntity(w, r, body, f)
}

// applyFlags performs the field-level flag transformations common to every
// entity (docs, epoch, collections), without writing headers: shared by
// single-entity bodies and by every item nested inside a collection body.
// schema=true attaches a "_schema" object reporting valid and the spec
// version; the entity itself is not validated against the model.
func (a *Adapter) applyFlags(e xregistry.Entity, f *xregistry.Flags) {
	if !f.Doc {
		delete(e, "docs")
	}
	if f.NoEpoch {
		delete(e, "epoch")
	}
	if !f.Collections {
		for k := range e {
			lower := strings.ToLower(k)
			if k != "self" && strings.HasSuffix(lower, "url") {
				delete(e, k)
			}
		}
	}
	if f.Schema {
		e["_schema"] = xregistry.Entity{"valid": true, "version": xregistry.SpecVersion}
	}
}

// writeEntity applies the request-scoped Warning headers ParseFlags's
// results call for (epoch mismatch, unsupported specversion) and serializes
// body via the shared response shaper.
func (a *Adapter) writeEntity(w http.ResponseWriter, r *http.Request, body xregistry.Entity, f *xregistry.Flags) {
	if f.Epoch != nil && *f.Epoch != a.Epoch {
		w.Header().Add("Warning", xregistry.Warning(fmt.Sprintf("requested epoch %d unavailable, serving current epoch %d", *f.Epoch, a.Epoch)))
	}
	if f.SpecVersion != "" && f.SpecVersion != xregistry.SpecVersion {
		w.Header().Add("Warning", xregistry.Warning(fmt.Sprintf("unsupported specversion %q, serving %s", f.SpecVersion, xregistry.SpecVersion)))
	}
	base := xregistry.BaseURL(r, a.baseURLOverride)
	xregistry.WriteEntity(w, r, body, a.Epoch, a.StartedAt, base)
}
