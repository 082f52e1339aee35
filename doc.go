// File: lixenwraith/settings/doc.go

// Package settings resolves typed configuration attributes from layered,
// scoped sources.
//
// A settings class declares fields. Reading a field on an instance walks a
// fixed priority order:
//
//  1. A value set directly on the instance, then on the nearest enclosing
//     instance of the same class (see Context).
//  2. Retrievers: the field's own, the instance's, enclosing instances',
//     then each class's default retrievers in MRO order.
//  3. The field default, which may be computed (DefaultFunc) or a live
//     reference to another field (LazyRef).
//
// The value found is converted to the declared type unless it already has
// that type, in which case it is returned as-is.
//
// Quick Start:
//
//	var Server = settings.NewClass("Server").
//	    Extends(settings.EnvSettings).
//	    Attr("host", settings.Type[string](), "localhost").
//	    Attr("port", settings.Type[int](), 8080).
//	    Annotate("token", settings.OptionalOf[string]()).
//	    MustBuild()
//
//	s := settings.Background().Current(Server)
//	port, err := settings.Value[int](s, "port") // PORT=9090 in the environment gives 9090
//
// Scoped overrides:
//
//	ctx := settings.Background()
//	override := Server.New(settings.WithValues(map[string]any{"port": 9999}))
//	_ = ctx.Use(override, func() error {
//	    // every read of Server.port in this scope sees 9999
//	    return run()
//	})
//
// Sources shipped with the package: EnvRetriever, FileRetriever (TOML, JSON,
// YAML, with polling reload), ArgsRetriever, FlagRetriever (pflag),
// ViperRetriever and MapRetriever.
package settings
