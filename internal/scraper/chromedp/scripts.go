package chromedp

// Extraction scripts evaluated in the page. Each returns a JSON string whose
// shape matches the corresponding profile struct's JSON tags.

const hierarchyScript = `(() => {
  const region = (el) => {
    if (!el) return null;
    const r = el.getBoundingClientRect();
    return {
      tag: el.tagName.toLowerCase(),
      text: (el.innerText || '').trim().slice(0, 200),
      bounds: { x: r.x, y: r.y, width: r.width, height: r.height },
    };
  };
  const header = document.querySelector('header, [role="banner"]');
  const nav = document.querySelector('nav, [role="navigation"]');
  const hero = document.querySelector(
    '[class*="hero"], [id*="hero"], main > section:first-of-type');
  const footer = document.querySelector('footer, [role="contentinfo"]');
  const sections = Array.from(
    document.querySelectorAll('main section, main article, body > section'))
    .slice(0, 12).map(region).filter(Boolean);
  return JSON.stringify({
    header: region(header),
    navigation: region(nav),
    hero: region(hero),
    sections: sections,
    footer: region(footer),
  });
})()`

const designTokensScript = `(() => {
  const palette = [];
  const counts = new Map();
  const fonts = new Set();
  const els = Array.from(document.querySelectorAll('body, body *')).slice(0, 800);
  for (const el of els) {
    const cs = getComputedStyle(el);
    for (const c of [cs.backgroundColor, cs.color]) {
      if (!c || c === 'rgba(0, 0, 0, 0)' || c === 'transparent') continue;
      counts.set(c, (counts.get(c) || 0) + 1);
    }
    const fam = cs.fontFamily.split(',')[0].trim().replace(/^["']|["']$/g, '');
    if (fam) fonts.add(fam);
  }
  const ordered = Array.from(counts.entries())
    .sort((a, b) => b[1] - a[1]).slice(0, 10).map(e => e[0]);
  palette.push(...ordered);
  const styleOf = (el) => {
    if (!el) return null;
    const cs = getComputedStyle(el);
    return {
      fontFamily: cs.fontFamily.split(',')[0].trim().replace(/^["']|["']$/g, ''),
      fontSize: cs.fontSize,
      fontWeight: cs.fontWeight,
    };
  };
  return JSON.stringify({
    palette: palette,
    typography: {
      font_families: Array.from(fonts).slice(0, 8),
      headings: styleOf(document.querySelector('h1, h2')) || undefined,
      body: styleOf(document.body) || undefined,
    },
  });
})()`

const layoutScript = `(() => {
  const tags = ['header', 'nav', 'main', 'section', 'article', 'aside',
                'footer', 'div', 'ul', 'table', 'form', 'img'];
  const tagCounts = {};
  for (const t of tags) {
    const n = document.getElementsByTagName(t).length;
    if (n > 0) tagCounts[t] = n;
  }
  const selectorFor = (el) => {
    if (el.id) return '#' + el.id;
    const cls = (el.className && typeof el.className === 'string')
      ? el.className.trim().split(/\s+/)[0] : '';
    return cls ? el.tagName.toLowerCase() + '.' + cls : el.tagName.toLowerCase();
  };
  const grids = [];
  const flexes = [];
  for (const el of Array.from(document.querySelectorAll('body *')).slice(0, 800)) {
    const d = getComputedStyle(el).display;
    if (d === 'grid' && grids.length < 10) grids.push(selectorFor(el));
    if (d === 'flex' && flexes.length < 10) flexes.push(selectorFor(el));
  }
  return JSON.stringify({
    tag_counts: tagCounts,
    grid_selectors: grids,
    flex_selectors: flexes,
  });
})()`

const metadataScript = `(() => {
  const meta = (name) => {
    const el = document.querySelector('meta[name="' + name + '"]');
    return el ? (el.getAttribute('content') || '') : '';
  };
  const og = {};
  for (const el of document.querySelectorAll('meta[property^="og:"]')) {
    const prop = el.getAttribute('property');
    const content = el.getAttribute('content');
    if (prop && content) og[prop] = content;
  }
  return JSON.stringify({
    title: document.title || '',
    description: meta('description'),
    open_graph: Object.keys(og).length ? og : undefined,
  });
})()`
